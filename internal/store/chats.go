package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aiva-platform/chat/internal/model"
)

// ChatStore handles chat persistence.
type ChatStore struct {
	db *gorm.DB
}

// Create inserts a new chat.
func (r *ChatStore) Create(ctx context.Context, chat *model.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

// Get fetches a chat by id, scoped to its owner.
func (r *ChatStore) Get(ctx context.Context, ownerID, chatID string) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", chatID, ownerID).
		First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// List returns the owner's chats ordered by recency, with the total count for
// pagination.
func (r *ChatStore) List(ctx context.Context, ownerID string, limit, offset int) ([]model.Chat, int64, error) {
	var chats []model.Chat
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Chat{}).Where("owner_id = ?", ownerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&chats).Error

	return chats, total, err
}

// ListSummaries returns the capped, recency-ordered history list.
func (r *ChatStore) ListSummaries(ctx context.Context, ownerID string, limit int) ([]model.ChatSummary, error) {
	var chats []model.Chat
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ChatSummary, len(chats))
	for i, c := range chats {
		summaries[i] = model.ChatSummary{
			ID:                 c.ID,
			Title:              c.Title,
			MessageCount:       c.MessageCount,
			LastMessagePreview: c.LastMessagePreview,
			UpdatedAt:          c.UpdatedAt,
		}
	}
	return summaries, nil
}

// Delete removes a chat and, via the schema's cascade, its messages.
func (r *ChatStore) Delete(ctx context.Context, ownerID, chatID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", chatID, ownerID).
		Delete(&model.Chat{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
