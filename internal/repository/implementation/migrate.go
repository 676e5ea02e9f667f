package implementation

import (
	"multimodal-rag-be/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates the tables backing the gorm repositories.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.UserSessionState{}, &model.UploadedFile{})
}
