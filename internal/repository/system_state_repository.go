package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/wealth-ops/internal/database"
)

// PostgresSystemStateRepository implements SystemStateRepository for PostgreSQL
type PostgresSystemStateRepository struct {
	q database.Querier
}

// NewPostgresSystemStateRepository creates a new system state repository
func NewPostgresSystemStateRepository(db *database.DB) SystemStateRepository {
	return &PostgresSystemStateRepository{q: db.Querier()}
}

// Get returns the value for key or models.ErrNotFound
func (r *PostgresSystemStateRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := r.q.QueryRow(ctx, `SELECT value FROM system_state WHERE key = $1`, key).Scan(&value); err != nil {
		return "", notFound(err)
	}
	return value, nil
}

// Set upserts key
func (r *PostgresSystemStateRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO system_state (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set state %q: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (r *PostgresSystemStateRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM system_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete state %q: %w", key, err)
	}
	return nil
}
