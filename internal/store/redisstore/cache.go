// Package redisstore caches the chats reporting view. The reconciler
// never reads it; only GET /chats does, so a cold or down cache costs a
// database aggregation, nothing more.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/message"
)

const chatsKey = "chats:summaries"

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// GetChats returns the cached conversation listing; ok is false on a
// miss.
func (c *Cache) GetChats(ctx context.Context) ([]message.ChatSummary, bool, error) {
	raw, err := c.rdb.Get(ctx, chatsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []message.ChatSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *Cache) SetChats(ctx context.Context, chats []message.ChatSummary) error {
	b, err := json.Marshal(chats)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, chatsKey, b, c.ttl).Err()
}

func (c *Cache) InvalidateChats(ctx context.Context) error {
	return c.rdb.Del(ctx, chatsKey).Err()
}
