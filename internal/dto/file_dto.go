package dto

const (
	UploadStatusIngested = "ingested"
	UploadStatusSkipped  = "skipped"
)

type UploadFile struct {
	Filename string `validate:"required"`
	Data     []byte `validate:"required"`
}

type UploadFilesRequest struct {
	Files []UploadFile `validate:"required,min=1,dive"`
	Tags  string
}

type UploadResult struct {
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Fragments  int    `json:"fragments,omitempty"`
	Collection string `json:"collection_name,omitempty"`
}

type UploadFilesResponse struct {
	Message string         `json:"message"`
	Files   []UploadResult `json:"files"`
}

type FileResponse struct {
	Id             string `json:"id"`
	Filename       string `json:"filename"`
	Uploader       string `json:"uploader"`
	Role           string `json:"role"`
	UploadTime     string `json:"upload_time"`
	CollectionName string `json:"collection_name"`
	Tags           string `json:"tags,omitempty"`
}
