package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aiva-platform/chat/internal/cache"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/store"
	"github.com/aiva-platform/chat/pkg/logger"
	"github.com/aiva-platform/chat/pkg/metrics"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 50
	maxTitleLength      = 50
)

// ChatService handles chat operations.
type ChatService struct {
	chats    ChatStore
	messages MessageStore
	history  HistoryCache
	logger   *logger.Logger
}

// NewChatService creates a new chat service. The history cache may be nil.
func NewChatService(chats ChatStore, messages MessageStore, history HistoryCache, log *logger.Logger) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		history:  history,
		logger:   log,
	}
}

// EnsureChat resolves the chat a send targets: an existing chat id is looked
// up with an ownership check, an absent id creates a new chat titled after
// the first message.
func (s *ChatService) EnsureChat(ctx context.Context, sess model.Session, chatID, workspaceID, firstMessage string) (*model.Chat, error) {
	if chatID != "" {
		chat, err := s.chats.Get(ctx, sess.UserID, chatID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.NewAPIError(http.StatusNotFound, model.ErrKindNotFound, "chat not found")
		}
		if err != nil {
			return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to load chat")
		}
		return chat, nil
	}

	chat := &model.Chat{
		ID:          uuid.Must(uuid.NewV7()).String(),
		OwnerID:     sess.UserID,
		WorkspaceID: workspaceID,
		Title:       titleFromMessage(firstMessage),
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to create chat")
	}

	metrics.ChatsTotal.Inc()
	s.logger.Info("chat created",
		zap.String("chat_id", chat.ID),
		zap.String("user_id", sess.UserID),
	)
	return chat, nil
}

// Create creates a titled chat explicitly.
func (s *ChatService) Create(ctx context.Context, sess model.Session, req *model.CreateChatRequest) (*model.Chat, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New Chat"
	}

	chat := &model.Chat{
		ID:          uuid.Must(uuid.NewV7()).String(),
		OwnerID:     sess.UserID,
		WorkspaceID: req.WorkspaceID,
		Title:       title,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to create chat")
	}

	metrics.ChatsTotal.Inc()
	s.invalidateHistory(ctx, sess.UserID)
	return chat, nil
}

// List returns the caller's chats with pagination.
func (s *ChatService) List(ctx context.Context, userID string, limit, offset int) (*model.ListChatsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	chats, total, err := s.chats.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to list chats")
	}

	return &model.ListChatsResponse{
		Chats:   chats,
		Total:   total,
		HasMore: int64(offset+len(chats)) < total,
	}, nil
}

// History returns the capped, recency-ordered chat summary list, cached per
// user.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]model.ChatSummary, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	if s.history != nil {
		summaries, err := s.history.GetSummaries(ctx, userID, limit)
		if err == nil {
			return summaries, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("history cache read failed", zap.Error(err))
		}
	}

	summaries, err := s.chats.ListSummaries(ctx, userID, limit)
	if err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to load chat history")
	}

	if s.history != nil {
		if err := s.history.SetSummaries(ctx, userID, limit, summaries); err != nil {
			s.logger.Warn("history cache write failed", zap.Error(err))
		}
	}
	return summaries, nil
}

// ChatWithMessages returns one chat and its messages in append order.
func (s *ChatService) ChatWithMessages(ctx context.Context, sess model.Session, chatID string) (*model.ChatHistoryResponse, error) {
	chat, err := s.chats.Get(ctx, sess.UserID, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NewAPIError(http.StatusNotFound, model.ErrKindNotFound, "chat not found")
	}
	if err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to load chat")
	}

	messages, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to load messages")
	}

	return &model.ChatHistoryResponse{Chat: *chat, Messages: messages}, nil
}

// Delete removes a chat and its messages.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	err := s.chats.Delete(ctx, userID, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return model.NewAPIError(http.StatusNotFound, model.ErrKindNotFound, "chat not found")
	}
	if err != nil {
		return model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to delete chat")
	}

	s.invalidateHistory(ctx, userID)
	return nil
}

func (s *ChatService) invalidateHistory(ctx context.Context, userID string) {
	if s.history == nil {
		return
	}
	if err := s.history.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("history cache invalidation failed", zap.Error(err))
	}
}

// titleFromMessage derives a chat title from the first message.
func titleFromMessage(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	if title == "" {
		return "New Chat"
	}
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}
	return title
}
