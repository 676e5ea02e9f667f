package contract

import (
	"context"

	"multimodal-rag-be/internal/entity"
)

type FileRepository interface {
	// FindByHash returns nil, nil when no file with that content hash exists.
	FindByHash(ctx context.Context, hash string) (*entity.UploadedFile, error)
	Create(ctx context.Context, file *entity.UploadedFile) error
	FindAll(ctx context.Context) ([]*entity.UploadedFile, error)
	FindByUploader(ctx context.Context, uploaderID string) ([]*entity.UploadedFile, error)
}
