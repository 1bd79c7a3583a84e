package statestore

import (
	"context"

	"github.com/yourusername/wealth-ops/internal/repository"
)

// PostgresStore persists state in the system_state table
type PostgresStore struct {
	repo repository.SystemStateRepository
}

// NewPostgresStore wraps a SystemStateRepository
func NewPostgresStore(repo repository.SystemStateRepository) *PostgresStore {
	return &PostgresStore{repo: repo}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	return p.repo.Get(ctx, key)
}

func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	return p.repo.Set(ctx, key, value)
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	return p.repo.Delete(ctx, key)
}

// CachedStore serves reads from a MemoryStore and falls through to a backing store.
// Writes go to the backing store first.
type CachedStore struct {
	front   *MemoryStore
	backing Store
}

// NewCachedStore layers front over backing
func NewCachedStore(front *MemoryStore, backing Store) *CachedStore {
	return &CachedStore{front: front, backing: backing}
}

func (c *CachedStore) Get(ctx context.Context, key string) (string, error) {
	if v, err := c.front.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := c.backing.Get(ctx, key)
	if err != nil {
		return "", err
	}
	_ = c.front.Set(ctx, key, v)
	return v, nil
}

func (c *CachedStore) Set(ctx context.Context, key, value string) error {
	if err := c.backing.Set(ctx, key, value); err != nil {
		return err
	}
	return c.front.Set(ctx, key, value)
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	if err := c.backing.Delete(ctx, key); err != nil {
		return err
	}
	return c.front.Delete(ctx, key)
}
