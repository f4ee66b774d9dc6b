package model

import (
	"time"
)

// Chat is a conversation thread owned by one user, optionally scoped to a
// workspace. Created implicitly on the first message when no chat id is
// supplied.
type Chat struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string    `gorm:"index;size:36;not null" json:"ownerId"`
	WorkspaceID string    `gorm:"index;size:36" json:"workspaceId,omitempty"`
	Title       string    `gorm:"size:256" json:"title"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `gorm:"index" json:"updatedAt"`

	// Denormalized read-side fields, bumped on every append.
	MessageCount       int    `json:"messageCount"`
	LastMessagePreview string `gorm:"size:256" json:"lastMessagePreview,omitempty"`

	Messages []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName sets the table name for gorm.
func (Chat) TableName() string {
	return "chats"
}

// ChatSummary is one row of the recency-ordered history list.
type ChatSummary struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	MessageCount       int       `json:"messageCount"`
	LastMessagePreview string    `json:"lastMessagePreview,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// CreateChatRequest is the body of POST /api/chat.
type CreateChatRequest struct {
	Title       string `json:"title"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

// ListChatsResponse is the response for listing chats.
type ListChatsResponse struct {
	Chats   []Chat `json:"chats"`
	Total   int64  `json:"total"`
	HasMore bool   `json:"hasMore"`
}

// ChatHistoryResponse is the response of GET /api/history/{chatId}.
type ChatHistoryResponse struct {
	Chat     Chat      `json:"chat"`
	Messages []Message `json:"messages"`
}
