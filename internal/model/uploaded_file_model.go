package model

import (
	"time"

	"github.com/google/uuid"
)

type UploadedFile struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename       string    `gorm:"type:text;not null"`
	UniqueFilename string    `gorm:"type:text;not null"`
	FileHash       string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Uploader       string    `gorm:"type:varchar(255);not null"`
	UploaderId     string    `gorm:"type:varchar(64);not null;index"`
	UploaderRole   string    `gorm:"type:varchar(20);not null"`
	UploadTime     time.Time `gorm:"not null;index"`
	FilePath       string    `gorm:"type:text;not null"`
	CollectionName string    `gorm:"type:varchar(255);not null"`
	Tags           string    `gorm:"type:text"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
