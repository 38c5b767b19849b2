package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/artchat/artchat/internal/domain"
)

const historyPrefix = "history:"

// HistoryCache keeps a short-lived copy of recent room history so repeated
// history fetches (every client asks on connect) skip the database. The TTL
// bounds staleness for messages that arrive over the socket path, which does
// not invalidate the cache.
type HistoryCache struct {
	client *Client
	ttl    time.Duration
}

// NewHistoryCache creates a new history cache
func NewHistoryCache(client *Client, ttl time.Duration) *HistoryCache {
	return &HistoryCache{client: client, ttl: ttl}
}

func historyKey(room string, limit int) string {
	return fmt.Sprintf("%s%s:%d", historyPrefix, room, limit)
}

// Get retrieves cached history for a room. A miss returns (nil, nil).
func (c *HistoryCache) Get(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	data, err := c.client.rdb.Get(ctx, historyKey(room, limit)).Bytes()
	if err != nil {
		return nil, nil // cache miss or unavailable; caller falls through
	}

	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return messages, nil
}

// Set caches history for a room
func (c *HistoryCache) Set(ctx context.Context, room string, limit int, messages []domain.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	return c.client.rdb.Set(ctx, historyKey(room, limit), data, c.ttl).Err()
}

// Invalidate drops every cached window for a room
func (c *HistoryCache) Invalidate(ctx context.Context, room string) error {
	pattern := historyPrefix + room + ":*"
	var cursor uint64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan history keys: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete history keys: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			return nil
		}
	}
}
