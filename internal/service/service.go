// Package service provides business logic for the chat platform.
package service

import (
	"context"
	"io"

	"github.com/aiva-platform/chat/internal/events"
	"github.com/aiva-platform/chat/internal/model"
)

// ChatStore is the persistence surface for chats.
type ChatStore interface {
	Create(ctx context.Context, chat *model.Chat) error
	Get(ctx context.Context, ownerID, chatID string) (*model.Chat, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]model.Chat, int64, error)
	ListSummaries(ctx context.Context, ownerID string, limit int) ([]model.ChatSummary, error)
	Delete(ctx context.Context, ownerID, chatID string) error
}

// MessageStore is the persistence surface for messages.
type MessageStore interface {
	Append(ctx context.Context, msg *model.Message) error
	Get(ctx context.Context, messageID string) (*model.Message, error)
	ListByChat(ctx context.Context, chatID string) ([]model.Message, error)
	ListLatestByChat(ctx context.Context, chatID string, limit int) ([]model.Message, error)
}

// ActionStore is the persistence surface for message reaction flags.
type ActionStore interface {
	Get(ctx context.Context, userID, messageID string) (*model.MessageAction, error)
	Upsert(ctx context.Context, action *model.MessageAction) error
	ListMessagesByFlag(ctx context.Context, userID string, flag model.ActionType) ([]model.Message, error)
}

// FileStore is the persistence surface for uploaded file records.
type FileStore interface {
	Create(ctx context.Context, file *model.File) error
	Get(ctx context.Context, ownerID, fileID string) (*model.File, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.File, error)
}

// BlobStorage stores and retrieves file binaries.
type BlobStorage interface {
	Save(id, originalName string, r io.Reader) (string, int64, error)
	Open(storedPath string) (io.ReadCloser, error)
	Remove(storedPath string) error
}

// Publisher publishes chat notifications. Implementations must tolerate
// being called after the write landed; publish failures never fail requests.
type Publisher interface {
	PublishMessage(ctx context.Context, chatID, ownerID string, msg *model.Message) error
	PublishReaction(ctx context.Context, chatID string, event *events.ReactionEvent) error
}

// HistoryCache caches per-user chat summary lists.
type HistoryCache interface {
	GetSummaries(ctx context.Context, userID string, limit int) ([]model.ChatSummary, error)
	SetSummaries(ctx context.Context, userID string, limit int, summaries []model.ChatSummary) error
	Invalidate(ctx context.Context, userID string) error
}
