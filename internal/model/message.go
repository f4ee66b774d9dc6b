// Package model defines data structures for the chat platform.
package model

import (
	"time"
)

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a persisted chat message. Messages are immutable once
// written; only their reaction state (MessageAction) changes afterwards.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ChatID    string    `gorm:"index;size:36;not null" json:"chatId"`
	Role      Role      `gorm:"size:20;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Attachments []Attachment `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
}

// TableName sets the table name for gorm.
func (Message) TableName() string {
	return "messages"
}

// Attachment links an uploaded file to the message it was sent with. The
// descriptor fields are denormalized so a message read never needs the files
// table.
type Attachment struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	MessageID    string    `gorm:"index;size:36;not null" json:"-"`
	FileID       string    `gorm:"size:36;not null" json:"fileId"`
	OriginalName string    `gorm:"size:255" json:"originalName"`
	URL          string    `gorm:"size:512" json:"url"`
	MimeType     string    `gorm:"size:128" json:"mimeType"`
	CreatedAt    time.Time `json:"-"`
}

// TableName sets the table name for gorm.
func (Attachment) TableName() string {
	return "message_attachments"
}

// SendMessageRequest is the body of POST /api/chat/message.
type SendMessageRequest struct {
	Message      string    `json:"message"`
	ChatID       string    `json:"chatId,omitempty"`
	WorkspaceID  string    `json:"workspaceId,omitempty"`
	UseDataAgent bool      `json:"useDataAgent,omitempty"`
	Files        []FileRef `json:"files,omitempty"`
}

// MessageReceipt identifies one persisted message in a send response.
type MessageReceipt struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// ReplyReceipt carries the assistant reply in a send response.
type ReplyReceipt struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SendMessageResponse is the response of POST /api/chat/message.
type SendMessageResponse struct {
	ChatID      string         `json:"chatId"`
	UserMessage MessageReceipt `json:"userMessage"`
	AIResponse  ReplyReceipt   `json:"aiResponse"`
}
