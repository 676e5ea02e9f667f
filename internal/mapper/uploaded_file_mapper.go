package mapper

import (
	"multimodal-rag-be/internal/entity"
	"multimodal-rag-be/internal/model"

	"github.com/google/uuid"
)

type UploadedFileMapper struct{}

func NewUploadedFileMapper() *UploadedFileMapper {
	return &UploadedFileMapper{}
}

func (m *UploadedFileMapper) ToEntity(f *model.UploadedFile) *entity.UploadedFile {
	if f == nil {
		return nil
	}
	return &entity.UploadedFile{
		Id:             f.Id.String(),
		Filename:       f.Filename,
		UniqueFilename: f.UniqueFilename,
		FileHash:       f.FileHash,
		Uploader:       f.Uploader,
		UploaderId:     f.UploaderId,
		UploaderRole:   entity.UploaderRole(f.UploaderRole),
		UploadTime:     f.UploadTime,
		FilePath:       f.FilePath,
		CollectionName: f.CollectionName,
		Tags:           f.Tags,
	}
}

func (m *UploadedFileMapper) ToModel(f *entity.UploadedFile) *model.UploadedFile {
	if f == nil {
		return nil
	}
	var id uuid.UUID
	if parsed, err := uuid.Parse(f.Id); err == nil {
		id = parsed
	}
	return &model.UploadedFile{
		Id:             id,
		Filename:       f.Filename,
		UniqueFilename: f.UniqueFilename,
		FileHash:       f.FileHash,
		Uploader:       f.Uploader,
		UploaderId:     f.UploaderId,
		UploaderRole:   string(f.UploaderRole),
		UploadTime:     f.UploadTime,
		FilePath:       f.FilePath,
		CollectionName: f.CollectionName,
		Tags:           f.Tags,
	}
}

func (m *UploadedFileMapper) ToEntities(files []*model.UploadedFile) []*entity.UploadedFile {
	out := make([]*entity.UploadedFile, len(files))
	for i, f := range files {
		out[i] = m.ToEntity(f)
	}
	return out
}
