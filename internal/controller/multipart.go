package controller

import (
	"io"
	"mime/multipart"

	"multimodal-rag-be/internal/dto"
	"multimodal-rag-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// uploadRequest collects the "files" parts (or "files[]") plus tags.
func uploadRequest(ctx *fiber.Ctx) (*dto.UploadFilesRequest, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrValidation, "uploadRequest", err)
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["files[]"]
	}

	req := &dto.UploadFilesRequest{Tags: utils.CopyString(ctx.FormValue("tags"))}
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			return nil, err
		}
		req.Files = append(req.Files, dto.UploadFile{Filename: fh.Filename, Data: data})
	}
	return req, nil
}
