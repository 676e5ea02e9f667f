package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"multimodal-rag-be/internal/dto"
	"multimodal-rag-be/internal/entity"
	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/internal/repository/contract"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/embedding"
	"multimodal-rag-be/pkg/events"
	"multimodal-rag-be/pkg/filetype"
	"multimodal-rag-be/pkg/store"
	"multimodal-rag-be/pkg/vectorstore"
)

const (
	fileModule       = "FileService"
	uploadTimeLayout = "2006-01-02 15:04:05"
	maxNameAttempts  = 100
)

type IFileService interface {
	// Upload ingests files sequentially and stops at the first failure.
	Upload(ctx context.Context, caller dto.Caller, role entity.UploaderRole, request *dto.UploadFilesRequest) (*dto.UploadFilesResponse, error)
	ListFiles(ctx context.Context, caller dto.Caller) ([]*dto.FileResponse, error)
}

// FragmentExtractor is satisfied by extract.Extractor.
type FragmentExtractor interface {
	Extract(ctx context.Context, kind filetype.Kind, data []byte, source string) ([]store.Fragment, error)
}

// Embedder is satisfied by embedding.Batcher.
type Embedder interface {
	Embed(ctx context.Context, fragments []string) (*embedding.Batch, error)
}

type fileService struct {
	files     contract.FileRepository
	extractor FragmentExtractor
	embedder  Embedder
	index     *vectorstore.Index
	uploadDir string
	publisher *ActivityPublisher
	logger    logger.ILogger
	now       func() time.Time
}

func NewFileService(
	files contract.FileRepository,
	extractor FragmentExtractor,
	embedder Embedder,
	index *vectorstore.Index,
	uploadDir string,
	publisher *ActivityPublisher,
	log logger.ILogger,
) IFileService {
	return &fileService{
		files:     files,
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		uploadDir: uploadDir,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func (s *fileService) Upload(ctx context.Context, caller dto.Caller, role entity.UploaderRole, request *dto.UploadFilesRequest) (*dto.UploadFilesResponse, error) {
	if role == entity.UploaderRoleAdmin && !caller.IsAdmin {
		return nil, apperror.New(apperror.ErrForbidden, "FileService.Upload", "admin role required")
	}

	dir, scope := s.target(caller, role)
	collectionName := s.index.CollectionFor(scope)

	results := make([]dto.UploadResult, 0, len(request.Files))
	for _, f := range request.Files {
		res, err := s.ingestOne(ctx, caller, role, f, dir, collectionName, request.Tags)
		if err != nil {
			s.logger.Error(fileModule, "File upload failed", map[string]interface{}{
				"filename": f.Filename,
				"uploader": caller.Username,
				"error":    err.Error(),
			})
			return nil, err
		}
		results = append(results, res)
	}

	return &dto.UploadFilesResponse{Message: "Files uploaded successfully", Files: results}, nil
}

// writeUnique stores data under a timestamped name that no other upload
// holds. Existing files are never overwritten.
func writeUnique(dir, filename string, now time.Time, data []byte) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := filetype.CandidateFilename(filename, now, attempt)
		path := filepath.Join(dir, name)
		fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", err
		}
		_, werr := fh.Write(data)
		if cerr := fh.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = os.Remove(path)
			return "", "", werr
		}
		return name, path, nil
	}
	return "", "", fmt.Errorf("no free filename for %s after %d attempts", filename, maxNameAttempts)
}

func (s *fileService) target(caller dto.Caller, role entity.UploaderRole) (string, vectorstore.Scope) {
	if role == entity.UploaderRoleAdmin {
		return filepath.Join(s.uploadDir, "admin"), vectorstore.GlobalScope()
	}
	folder := safeSegment(caller.Username + "_" + caller.UserID)
	return filepath.Join(s.uploadDir, "users", folder), vectorstore.UserScope(caller.Username, caller.UserID)
}

func (s *fileService) ingestOne(
	ctx context.Context,
	caller dto.Caller,
	role entity.UploaderRole,
	f dto.UploadFile,
	dir, collectionName, tags string,
) (result dto.UploadResult, err error) {
	result.Filename = f.Filename
	hash := filetype.Hash(f.Data)

	existing, err := s.files.FindByHash(ctx, hash)
	if err != nil {
		return result, err
	}
	if existing != nil {
		s.logger.Info(fileModule, "File already exists, skipping upload", map[string]interface{}{
			"filename": f.Filename,
			"hash":     hash,
		})
		s.publisher.Publish(ctx, events.FileSkipped(caller.UserID, f.Filename, hash, s.now()))
		result.Status = dto.UploadStatusSkipped
		return result, nil
	}

	kind, mime := filetype.Detect(f.Filename, f.Data)
	if kind == filetype.KindUnknown {
		return result, apperror.New(apperror.ErrValidation, "FileService.Upload", "unsupported file type "+mime)
	}

	now := s.now()
	unique, path, err := writeUnique(dir, f.Filename, now, f.Data)
	if err != nil {
		return result, err
	}
	defer func() {
		if err != nil {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				s.logger.Warn(fileModule, "Failed to remove partial upload", map[string]interface{}{
					"path":  path,
					"error": rmErr.Error(),
				})
			}
		}
	}()

	frags, err := s.extractor.Extract(ctx, kind, f.Data, path)
	if err != nil {
		return result, err
	}

	batch, err := s.embedder.Embed(ctx, store.FragmentTexts(frags))
	if err != nil {
		return result, err
	}

	coll, err := s.index.CreateOrSetCollection(ctx, collectionName)
	if err != nil {
		return result, err
	}
	stored, err := coll.IngestData(ctx, batch, path)
	if err != nil {
		return result, err
	}

	record := &entity.UploadedFile{
		Filename:       f.Filename,
		UniqueFilename: unique,
		FileHash:       hash,
		Uploader:       caller.Username,
		UploaderId:     caller.UserID,
		UploaderRole:   role,
		UploadTime:     now,
		FilePath:       path,
		CollectionName: collectionName,
		Tags:           tags,
	}
	if err := s.files.Create(ctx, record); err != nil {
		return result, err
	}

	s.logger.Info(fileModule, "File uploaded and processed successfully", map[string]interface{}{
		"filename":   f.Filename,
		"collection": collectionName,
		"fragments":  stored,
	})
	s.publisher.Publish(ctx, events.FileIngested(caller.UserID, f.Filename, collectionName, stored, now))

	result.Status = dto.UploadStatusIngested
	result.Fragments = stored
	result.Collection = collectionName
	return result, nil
}

// ListFiles returns every file for admins and the caller's own otherwise.
func (s *fileService) ListFiles(ctx context.Context, caller dto.Caller) ([]*dto.FileResponse, error) {
	var (
		files []*entity.UploadedFile
		err   error
	)
	if caller.IsAdmin {
		files, err = s.files.FindAll(ctx)
	} else {
		files, err = s.files.FindByUploader(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.FileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, &dto.FileResponse{
			Id:             f.Id,
			Filename:       f.Filename,
			Uploader:       f.Uploader,
			Role:           string(f.UploaderRole),
			UploadTime:     f.UploadTime.Format(uploadTimeLayout),
			CollectionName: f.CollectionName,
			Tags:           f.Tags,
		})
	}
	return resp, nil
}

// safeSegment keeps a user-derived path element inside its parent.
func safeSegment(s string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
	out = strings.TrimLeft(out, ".")
	if out == "" {
		return "_"
	}
	return out
}
