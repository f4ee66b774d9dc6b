package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aiva-platform/chat/internal/events"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/store"
	"github.com/aiva-platform/chat/pkg/logger"
	"github.com/aiva-platform/chat/pkg/metrics"
)

// ActionService handles message reaction flags.
type ActionService struct {
	actions   ActionStore
	messages  MessageStore
	publisher Publisher
	logger    *logger.Logger
}

// NewActionService creates a new action service. Publisher may be nil.
func NewActionService(actions ActionStore, messages MessageStore, publisher Publisher, log *logger.Logger) *ActionService {
	return &ActionService{
		actions:   actions,
		messages:  messages,
		publisher: publisher,
		logger:    log,
	}
}

// Add sets a reaction flag. Setting like clears dislike and vice versa; the
// whole flag set lands in one upsert.
func (s *ActionService) Add(ctx context.Context, userID, messageID string, action model.ActionType) (*model.MessageAction, error) {
	return s.toggle(ctx, userID, messageID, action, true)
}

// Remove clears a reaction flag. The row stays; flags only toggle off.
func (s *ActionService) Remove(ctx context.Context, userID, messageID string, action model.ActionType) (*model.MessageAction, error) {
	return s.toggle(ctx, userID, messageID, action, false)
}

func (s *ActionService) toggle(ctx context.Context, userID, messageID string, action model.ActionType, active bool) (*model.MessageAction, error) {
	if !model.ValidAction(action) {
		return nil, model.NewAPIError(http.StatusBadRequest, model.ErrKindValidation, "unknown action type")
	}

	msg, err := s.messages.Get(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NewAPIError(http.StatusNotFound, model.ErrKindNotFound, "message not found")
	}
	if err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to load message")
	}

	act, err := s.actions.Get(ctx, userID, messageID)
	if err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to load message actions")
	}

	act.Set(action, active)
	if err := s.actions.Upsert(ctx, act); err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to store message action")
	}

	metrics.ReactionsTotal.WithLabelValues(string(action), strconv.FormatBool(active)).Inc()

	if s.publisher != nil {
		event := &events.ReactionEvent{
			MessageID: messageID,
			UserID:    userID,
			Action:    action,
			Active:    active,
			At:        time.Now().UTC(),
		}
		if err := s.publisher.PublishReaction(ctx, msg.ChatID, event); err != nil {
			s.logger.Warn("failed to publish reaction event", zap.Error(err), zap.String("message_id", messageID))
		}
	}

	return act, nil
}

// ListByFlag returns the caller's messages carrying a given flag.
func (s *ActionService) ListByFlag(ctx context.Context, userID string, flag model.ActionType) ([]model.Message, error) {
	if !model.ValidAction(flag) {
		return nil, model.NewAPIError(http.StatusBadRequest, model.ErrKindValidation, "unknown action type")
	}
	messages, err := s.actions.ListMessagesByFlag(ctx, userID, flag)
	if err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to list messages")
	}
	return messages, nil
}
