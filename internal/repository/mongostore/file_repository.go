package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"multimodal-rag-be/internal/entity"
	"multimodal-rag-be/internal/repository/contract"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type fileDocument struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Filename       string        `bson:"filename"`
	UniqueFilename string        `bson:"unique_filename"`
	FileHash       string        `bson:"file_hash"`
	Uploader       string        `bson:"uploader"`
	UploaderID     string        `bson:"uploader_id"`
	UploaderRole   string        `bson:"uploader_role"`
	UploadTime     time.Time     `bson:"upload_time"`
	FilePath       string        `bson:"file_path"`
	CollectionName string        `bson:"collection_name"`
	Tags           string        `bson:"tags,omitempty"`
}

func (d *fileDocument) toEntity() *entity.UploadedFile {
	return &entity.UploadedFile{
		Id:             d.ID.Hex(),
		Filename:       d.Filename,
		UniqueFilename: d.UniqueFilename,
		FileHash:       d.FileHash,
		Uploader:       d.Uploader,
		UploaderId:     d.UploaderID,
		UploaderRole:   entity.UploaderRole(d.UploaderRole),
		UploadTime:     d.UploadTime,
		FilePath:       d.FilePath,
		CollectionName: d.CollectionName,
		Tags:           d.Tags,
	}
}

func fromEntity(f *entity.UploadedFile) *fileDocument {
	return &fileDocument{
		Filename:       f.Filename,
		UniqueFilename: f.UniqueFilename,
		FileHash:       f.FileHash,
		Uploader:       f.Uploader,
		UploaderID:     f.UploaderId,
		UploaderRole:   string(f.UploaderRole),
		UploadTime:     f.UploadTime,
		FilePath:       f.FilePath,
		CollectionName: f.CollectionName,
		Tags:           f.Tags,
	}
}

type FileRepository struct {
	coll *mongo.Collection
}

func NewFileRepository(db *mongo.Database) contract.FileRepository {
	return &FileRepository{coll: db.Collection(FilesCollection)}
}

func (r *FileRepository) FindByHash(ctx context.Context, hash string) (*entity.UploadedFile, error) {
	res := r.coll.FindOne(ctx, bson.M{"file_hash": hash})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storeErr("mongostore.FindByHash", err)
	}
	var doc fileDocument
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("mongostore.FindByHash: decode: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *FileRepository) Create(ctx context.Context, file *entity.UploadedFile) error {
	doc := fromEntity(file)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return storeErr("mongostore.CreateFile", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		file.Id = id.Hex()
	}
	return nil
}

func (r *FileRepository) FindAll(ctx context.Context) ([]*entity.UploadedFile, error) {
	return r.find(ctx, bson.M{})
}

func (r *FileRepository) FindByUploader(ctx context.Context, uploaderID string) ([]*entity.UploadedFile, error) {
	return r.find(ctx, bson.M{"uploader_id": uploaderID})
}

func (r *FileRepository) find(ctx context.Context, filter bson.M) ([]*entity.UploadedFile, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "upload_time", Value: -1}}))
	if err != nil {
		return nil, storeErr("mongostore.FindFiles", err)
	}
	var docs []fileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr("mongostore.FindFiles", err)
	}

	out := make([]*entity.UploadedFile, len(docs))
	for i := range docs {
		out[i] = docs[i].toEntity()
	}
	return out, nil
}
