package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/aiva-platform/chat/internal/model"
)

const (
	// StreamName is the name of the chat events stream.
	StreamName = "AIVA"

	// SubjectPrefix is the prefix for all chat event subjects.
	SubjectPrefix = "aiva"
)

// MessageEvent is published after a message is persisted.
type MessageEvent struct {
	MessageID string     `json:"messageId"`
	ChatID    string     `json:"chatId"`
	OwnerID   string     `json:"ownerId"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ReactionEvent is published after a reaction toggle.
type ReactionEvent struct {
	MessageID string           `json:"messageId"`
	UserID    string           `json:"userId"`
	Action    model.ActionType `json:"action"`
	Active    bool             `json:"active"`
	At        time.Time        `json:"at"`
}

// Publisher publishes chat events to JetStream.
type Publisher struct {
	client *Client
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the events stream exists with proper configuration.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Chat message and reaction notifications",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for a message event.
func MessageSubject(chatID string, role model.Role) string {
	return fmt.Sprintf("%s.chat.%s.msg.%s", SubjectPrefix, chatID, role)
}

// ReactionSubject returns the subject for a reaction event.
func ReactionSubject(chatID string) string {
	return fmt.Sprintf("%s.chat.%s.reaction", SubjectPrefix, chatID)
}

// PublishMessage publishes a message notification.
func (p *Publisher) PublishMessage(ctx context.Context, chatID, ownerID string, msg *model.Message) error {
	event := MessageEvent{
		MessageID: msg.ID,
		ChatID:    chatID,
		OwnerID:   ownerID,
		Role:      msg.Role,
		CreatedAt: msg.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, MessageSubject(chatID, msg.Role), data); err != nil {
		return fmt.Errorf("failed to publish message event: %w", err)
	}
	return nil
}

// PublishReaction publishes a reaction notification.
func (p *Publisher) PublishReaction(ctx context.Context, chatID string, event *ReactionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal reaction event: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, ReactionSubject(chatID), data); err != nil {
		return fmt.Errorf("failed to publish reaction event: %w", err)
	}
	return nil
}
