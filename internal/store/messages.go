package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aiva-platform/chat/internal/model"
)

// previewLength caps the denormalized last-message preview on the chat row.
const previewLength = 200

// MessageStore handles message persistence.
type MessageStore struct {
	db *gorm.DB
}

// Append inserts a message with its attachments and bumps the owning chat's
// read-side counters in the same transaction. A single append is atomic; the
// send pipeline deliberately does not span user and assistant messages with
// one transaction.
func (r *MessageStore) Append(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		return tx.Model(&model.Chat{}).
			Where("id = ?", msg.ChatID).
			Updates(map[string]interface{}{
				"message_count":        gorm.Expr("message_count + 1"),
				"last_message_preview": truncatePreview(msg.Content),
				"updated_at":           msg.CreatedAt,
			}).Error
	})
}

// truncatePreview caps the preview at previewLength runes so a multi-byte
// character is never split into invalid UTF-8.
func truncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) > previewLength {
		return string(runes[:previewLength])
	}
	return content
}

// Get fetches one message by id.
func (r *MessageStore) Get(ctx context.Context, messageID string) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("id = ?", messageID).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByChat returns a chat's messages in append order.
func (r *MessageStore) ListByChat(ctx context.Context, chatID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// ListLatestByChat returns the newest limit messages of a chat in append
// order, for reply-generation context.
func (r *MessageStore) ListLatestByChat(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	var messages []model.Message

	subQuery := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit)

	err := r.db.WithContext(ctx).
		Table("(?) as t", subQuery).
		Order("created_at ASC").
		Find(&messages).Error

	return messages, err
}
