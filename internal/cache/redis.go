// Package cache provides a Redis-backed cache for the chat history list.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aiva-platform/chat/internal/model"
)

// summaryTTL bounds staleness for callers that bypass invalidation (e.g. a
// chat deleted by an admin tool writing to the database directly).
const summaryTTL = 5 * time.Minute

// ErrMiss is returned when the cache has no entry for the key.
var ErrMiss = errors.New("cache miss")

// HistoryCache caches per-user chat summary lists.
type HistoryCache struct {
	client *redis.Client
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*HistoryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &HistoryCache{client: client}, nil
}

// Close closes the Redis connection.
func (c *HistoryCache) Close() error {
	return c.client.Close()
}

func summaryKey(userID string, limit int) string {
	return fmt.Sprintf("history:%s:%d", userID, limit)
}

// GetSummaries returns the cached history list for a user, or ErrMiss.
func (c *HistoryCache) GetSummaries(ctx context.Context, userID string, limit int) ([]model.ChatSummary, error) {
	data, err := c.client.Get(ctx, summaryKey(userID, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var summaries []model.ChatSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SetSummaries stores the history list for a user.
func (c *HistoryCache) SetSummaries(ctx context.Context, userID string, limit int, summaries []model.ChatSummary) error {
	data, err := json.Marshal(summaries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(userID, limit), data, summaryTTL).Err()
}

// Invalidate drops all cached history lists for a user. Called after every
// send and chat deletion.
func (c *HistoryCache) Invalidate(ctx context.Context, userID string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("history:%s:*", userID), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
