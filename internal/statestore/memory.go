package statestore

import (
	"context"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps values in process memory with an optional TTL
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates a store whose entries expire after ttl; ttl <= 0 never expires
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	expiry := ttl
	if ttl <= 0 {
		expiry = cache.NoExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryStore{
		cache: cache.New(expiry, cleanupInterval),
		ttl:   expiry,
	}
}

// Get returns the value for key or ErrNotFound
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, found := m.cache.Get(key)
	if !found {
		return "", ErrNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

// Set stores value under key with the store TTL
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.cache.Set(key, value, m.ttl)
	return nil
}

// Delete removes key
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Len reports the number of unexpired entries
func (m *MemoryStore) Len() int {
	return m.cache.ItemCount()
}

// Flush removes every entry
func (m *MemoryStore) Flush() {
	m.cache.Flush()
}
