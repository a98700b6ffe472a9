package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a store key.
const MaxKeyLength = 512

// Sentinel errors for store operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Store is the cache/counter adapter consumed by the pipeline.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Get never errors; it returns (nil, false) on miss.
//   - Increment must be atomic and must set the TTL only when the counter
//     is first created, never on subsequent increments.
//   - Set and Increment reject keys that fail ValidateKey.
type Store interface {
	// Get retrieves a value. Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL. TTL<=0 means no caching.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value. Idempotent; no error on miss.
	Delete(ctx context.Context, key string) error

	// Increment atomically increments a counter and returns the new
	// count. The TTL applies only when the counter is created.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// ValidateKey checks if a key is valid for storage.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
