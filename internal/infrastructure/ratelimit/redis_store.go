// Package ratelimit provides a Redis backed store for the echo rate limiter
// so that several API instances share one request budget per client.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartplanner/core/internal/infrastructure/config"
	"github.com/smartplanner/core/internal/infrastructure/logger"
)

const defaultOpTimeout = 200 * time.Millisecond

// RedisStore counts requests per identifier in fixed windows. It satisfies
// echo's middleware.RateLimiterStore.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	limit     int64
	window    time.Duration
	opTimeout time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

// RedisStoreOption customises a RedisStore
type RedisStoreOption func(*RedisStore)

func WithStoreClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// NewRedisClient creates a client from config and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.GetAddr(), err)
	}

	return client, nil
}

// NewRedisStore allows limit requests per window for each identifier
func NewRedisStore(client *redis.Client, keyPrefix string, limit int, window time.Duration, logger *logger.Logger, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     int64(limit),
		window:    window,
		opTimeout: defaultOpTimeout,
		now:       time.Now,
		logger:    logger.WithComponent("ratelimit"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow records one request for identifier. Redis failures let the request
// through.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	count, err := s.hit(ctx, identifier)
	if err != nil {
		s.logger.Warnw("Rate limiter store unavailable", "error", err)
		return true, nil
	}

	return count <= s.limit, nil
}

func (s *RedisStore) hit(ctx context.Context, identifier string) (int64, error) {
	key := s.key(identifier)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis pipeline error: %w", err)
	}

	return incr.Val(), nil
}

// Reset clears the current window of identifier
func (s *RedisStore) Reset(ctx context.Context, identifier string) error {
	return s.client.Del(ctx, s.key(identifier)).Err()
}

func (s *RedisStore) key(identifier string) string {
	bucket := s.now().UnixNano() / int64(s.window)
	return fmt.Sprintf("%s%s:%d", s.keyPrefix, identifier, bucket)
}
