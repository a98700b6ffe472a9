package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory Store implementation.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	value     []byte
	count     int64
	expiresAt time.Time
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memoryEntry)}
}

// Get retrieves a value. Returns (nil, false) on miss or expiry.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.expired(entry) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the given TTL. TTL<=0 means no caching.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	m.entries[key] = &memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Delete removes a value. Idempotent; no error on miss.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Increment atomically increments a counter. The TTL is set only when
// the counter is created; later increments leave the window untouched.
func (m *Memory) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || m.expired(entry) {
		entry = &memoryEntry{count: 1}
		if ttl > 0 {
			entry.expiresAt = time.Now().Add(ttl)
		}
		m.entries[key] = entry
		return 1, nil
	}
	entry.count++
	return entry.count, nil
}

func (m *Memory) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)
}

var _ Store = (*Memory)(nil)
