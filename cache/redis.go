package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store implementation backed by a Redis client.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis creates a Redis-backed store.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Get retrieves a value. Returns (nil, false) on miss or any client error;
// the cache layer treats unreadable entries as misses.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return raw, true
}

// Set stores a value with the given TTL. TTL<=0 means no caching.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Delete removes a value. Idempotent; no error on miss.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

// Increment atomically increments a counter via INCR. The TTL is applied
// with EXPIRE NX semantics so only the first increment starts the window.
func (r *Redis) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache: redis incr: %w", err)
	}
	if ttl > 0 {
		if err := r.client.ExpireNX(ctx, key, ttl).Err(); err != nil {
			return count, fmt.Errorf("cache: redis expire: %w", err)
		}
	}
	return count, nil
}

var _ Store = (*Redis)(nil)
