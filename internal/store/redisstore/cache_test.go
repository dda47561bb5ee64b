package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/message"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, time.Minute)
}

func TestCache_MissThenHit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, hit, err := c.GetChats(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Fatalf("expected miss on empty cache")
	}

	want := []message.ChatSummary{
		{ConversationID: "c1", LastBody: "hi", LastStatus: "delivered", UnreadCount: 2},
	}
	if err := c.SetChats(ctx, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, hit, err := c.GetChats(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !hit {
		t.Fatalf("expected hit after set")
	}
	if len(got) != 1 || got[0].ConversationID != "c1" || got[0].UnreadCount != 2 {
		t.Fatalf("unexpected cached value: %+v", got)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.SetChats(ctx, []message.ChatSummary{{ConversationID: "c1"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.InvalidateChats(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	_, hit, err := c.GetChats(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Fatalf("expected miss after invalidation")
	}
}
