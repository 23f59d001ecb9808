package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/smartplanner/core/internal/infrastructure/logger"
)

func newTestStore(t *testing.T, limit int, now func() time.Time) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, "rl:", limit, time.Minute, logger.NewNop(), WithStoreClock(now)), m
}

func TestRedisStoreLimitsPerWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 10, 0, time.UTC)
	store, _ := newTestStore(t, 3, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		allowed, err := store.Allow("10.0.0.1")
		if err != nil || !allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
	if allowed, _ := store.Allow("10.0.0.1"); allowed {
		t.Fatalf("fourth request in the window should be denied")
	}
	if allowed, _ := store.Allow("10.0.0.2"); !allowed {
		t.Fatalf("other clients have their own budget")
	}

	now = now.Add(time.Minute)
	if allowed, _ := store.Allow("10.0.0.1"); !allowed {
		t.Fatalf("next window should start a fresh budget")
	}
}

func TestRedisStoreSetsExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store, m := newTestStore(t, 5, func() time.Time { return now })

	if _, err := store.Allow("client"); err != nil {
		t.Fatalf("allow: %v", err)
	}

	key := store.key("client")
	if ttl := m.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl=%v", ttl)
	}

	if err := store.Reset(context.Background(), "client"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if m.Exists(key) {
		t.Fatalf("reset should delete the counter")
	}
}

func TestRedisStoreFailsOpen(t *testing.T) {
	store, m := newTestStore(t, 1, time.Now)
	m.Close()

	allowed, err := store.Allow("client")
	if err != nil || !allowed {
		t.Fatalf("unavailable redis should let requests through, allowed=%v err=%v", allowed, err)
	}
}
