package entity

import "time"

type UploaderRole string

const (
	UploaderRoleUser  UploaderRole = "user"
	UploaderRoleAdmin UploaderRole = "admin"
)

// UploadedFile is the bookkeeping record of one ingested document.
type UploadedFile struct {
	Id             string
	Filename       string
	UniqueFilename string
	FileHash       string
	Uploader       string
	UploaderId     string
	UploaderRole   UploaderRole
	UploadTime     time.Time
	FilePath       string
	CollectionName string
	Tags           string
}
