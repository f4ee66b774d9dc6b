package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aiva-platform/chat/internal/model"
)

// ActionStore handles per-user message reaction flags.
type ActionStore struct {
	db *gorm.DB
}

// Get fetches the action row for (message, user). Absence is not an error:
// a zero-valued row is returned so callers can toggle from all-false.
func (r *ActionStore) Get(ctx context.Context, userID, messageID string) (*model.MessageAction, error) {
	var action model.MessageAction
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		First(&action).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.MessageAction{MessageID: messageID, UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// Upsert writes the full flag set for (message, user), creating the row on
// first action. All four flags are written so like/dislike exclusivity
// applied by the caller lands in one statement.
func (r *ActionStore) Upsert(ctx context.Context, action *model.MessageAction) error {
	action.UpdatedAt = time.Now()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = action.UpdatedAt
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"liked", "disliked", "starred", "bookmarked", "updated_at",
			}),
		}).
		Create(action).Error
}

// ListMessagesByFlag returns the caller's messages carrying a given flag,
// newest reaction first.
func (r *ActionStore) ListMessagesByFlag(ctx context.Context, userID string, flag model.ActionType) ([]model.Message, error) {
	column, ok := flagColumn(flag)
	if !ok {
		return nil, errors.New("unknown action type")
	}

	var messages []model.Message
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Joins("JOIN message_actions ON message_actions.message_id = messages.id").
		Where("message_actions.user_id = ? AND message_actions."+column+" = ?", userID, true).
		Order("message_actions.updated_at DESC").
		Find(&messages).Error
	return messages, err
}

func flagColumn(flag model.ActionType) (string, bool) {
	switch flag {
	case model.ActionLike:
		return "liked", true
	case model.ActionDislike:
		return "disliked", true
	case model.ActionStar:
		return "starred", true
	case model.ActionBookmark:
		return "bookmarked", true
	}
	return "", false
}
