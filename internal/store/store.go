// Package store provides relational persistence for chats, messages,
// attachments, files and message actions.
package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aiva-platform/chat/internal/model"
)

// ErrNotFound is returned when a requested row does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// Store wraps the gorm handle and exposes per-entity accessors.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and runs migrations.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Chat{},
		&model.Message{},
		&model.Attachment{},
		&model.File{},
		&model.MessageAction{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Chats returns the chat store.
func (s *Store) Chats() *ChatStore {
	return &ChatStore{db: s.db}
}

// Messages returns the message store.
func (s *Store) Messages() *MessageStore {
	return &MessageStore{db: s.db}
}

// Actions returns the message action store.
func (s *Store) Actions() *ActionStore {
	return &ActionStore{db: s.db}
}

// Files returns the file store.
func (s *Store) Files() *FileStore {
	return &FileStore{db: s.db}
}
