package implementation

import (
	"context"
	"errors"

	"multimodal-rag-be/internal/entity"
	"multimodal-rag-be/internal/mapper"
	"multimodal-rag-be/internal/model"
	"multimodal-rag-be/internal/repository/contract"
	"multimodal-rag-be/pkg/apperror"

	"gorm.io/gorm"
)

type FileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UploadedFileMapper
}

func NewFileRepository(db *gorm.DB) contract.FileRepository {
	return &FileRepositoryImpl{
		db:     db,
		mapper: mapper.NewUploadedFileMapper(),
	}
}

func (r *FileRepositoryImpl) FindByHash(ctx context.Context, hash string) (*entity.UploadedFile, error) {
	var m model.UploadedFile
	if err := r.db.WithContext(ctx).Where("file_hash = ?", hash).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.Wrap(apperror.ErrBackendUnavailable, "FileRepository.FindByHash", err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *FileRepositoryImpl) Create(ctx context.Context, file *entity.UploadedFile) error {
	m := r.mapper.ToModel(file)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperror.Wrap(apperror.ErrBackendUnavailable, "FileRepository.Create", err)
	}
	*file = *r.mapper.ToEntity(m)
	return nil
}

func (r *FileRepositoryImpl) FindAll(ctx context.Context) ([]*entity.UploadedFile, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *FileRepositoryImpl) FindByUploader(ctx context.Context, uploaderID string) ([]*entity.UploadedFile, error) {
	return r.find(r.db.WithContext(ctx).Where("uploader_id = ?", uploaderID))
}

func (r *FileRepositoryImpl) find(q *gorm.DB) ([]*entity.UploadedFile, error) {
	var models []*model.UploadedFile
	if err := q.Order("upload_time DESC").Find(&models).Error; err != nil {
		return nil, apperror.Wrap(apperror.ErrBackendUnavailable, "FileRepository.Find", err)
	}
	return r.mapper.ToEntities(models), nil
}
