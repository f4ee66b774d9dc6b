package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aiva-platform/chat/internal/model"
)

// FileStore handles uploaded file records.
type FileStore struct {
	db *gorm.DB
}

// Create inserts a file record.
func (r *FileStore) Create(ctx context.Context, file *model.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// Get fetches a file by id, scoped to its owner.
func (r *FileStore) Get(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", fileID, ownerID).
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByOwner returns the owner's files, newest first.
func (r *FileStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.File, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&files).Error
	return files, err
}
