package model

import (
	"time"
)

// File is an uploaded file owned by a user. The binary lives on the storage
// backend under StoredPath; everything the wire contract needs is in the
// FileRef view.
type File struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID      string    `gorm:"index;size:36;not null" json:"ownerId"`
	ChatID       string    `gorm:"index;size:36" json:"chatId,omitempty"`
	OriginalName string    `gorm:"size:255;not null" json:"originalName"`
	StoredPath   string    `gorm:"size:512;not null" json:"-"`
	URL          string    `gorm:"size:512" json:"url"`
	MimeType     string    `gorm:"size:128" json:"mimeType"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName sets the table name for gorm.
func (File) TableName() string {
	return "files"
}

// FileRef is the wire descriptor for a file attached to a message.
type FileRef struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
}

// Ref returns the wire descriptor for a file.
func (f *File) Ref() FileRef {
	return FileRef{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		URL:          f.URL,
		MimeType:     f.MimeType,
	}
}
