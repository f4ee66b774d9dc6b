package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/storage"
	"github.com/aiva-platform/chat/internal/store"
	"github.com/aiva-platform/chat/pkg/logger"
	"github.com/aiva-platform/chat/pkg/metrics"
)

// FileService handles file uploads and downloads.
type FileService struct {
	files  FileStore
	blobs  BlobStorage
	logger *logger.Logger
}

// NewFileService creates a new file service.
func NewFileService(files FileStore, blobs BlobStorage, log *logger.Logger) *FileService {
	return &FileService{
		files:  files,
		blobs:  blobs,
		logger: log,
	}
}

// Upload stores the binary and its record, returning the wire descriptor
// the send request carries.
func (s *FileService) Upload(ctx context.Context, sess model.Session, originalName, contentType, chatID string, r io.Reader) (*model.FileRef, error) {
	name := storage.SanitizeFilename(originalName)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := storage.NewID()
	path, size, err := s.blobs.Save(id, name, r)
	if errors.Is(err, storage.ErrTooLarge) {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, model.NewAPIError(http.StatusBadRequest, model.ErrKindUpload, "file size exceeds limit")
	}
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("failed to store upload", zap.Error(err), zap.String("file_name", name))
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindUpload, "failed to store file")
	}

	file := &model.File{
		ID:           id,
		OwnerID:      sess.UserID,
		ChatID:       chatID,
		OriginalName: name,
		StoredPath:   path,
		URL:          "/api/files/" + id,
		MimeType:     contentType,
		Size:         size,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.files.Create(ctx, file); err != nil {
		if rmErr := s.blobs.Remove(path); rmErr != nil {
			s.logger.Warn("failed to remove orphaned blob", zap.Error(rmErr), zap.String("file_id", id))
		}
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to store file record")
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	metrics.UploadBytesTotal.Add(float64(size))

	ref := file.Ref()
	return &ref, nil
}

// Get returns a file record and a reader over its binary. The caller closes
// the reader.
func (s *FileService) Get(ctx context.Context, userID, fileID string) (*model.File, io.ReadCloser, error) {
	file, err := s.files.Get(ctx, userID, fileID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, model.NewAPIError(http.StatusNotFound, model.ErrKindNotFound, "file not found")
	}
	if err != nil {
		return nil, nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to load file")
	}

	rc, err := s.blobs.Open(file.StoredPath)
	if err != nil {
		return nil, nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindUpload, "failed to open file")
	}
	return file, rc, nil
}

// List returns the caller's uploaded files, newest first.
func (s *FileService) List(ctx context.Context, userID string, limit int) ([]model.File, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	files, err := s.files.ListByOwner(ctx, userID, limit)
	if err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to list files")
	}
	return files, nil
}
