package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/wealth-ops/internal/database"
	"github.com/yourusername/wealth-ops/internal/models"
)

// Repositories holds all repository implementations
type Repositories struct {
	BacktestRun BacktestRunRepository
	PriceBar    PriceBarRepository
	SystemState SystemStateRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		BacktestRun: NewPostgresBacktestRunRepository(db),
		PriceBar:    NewPostgresPriceBarRepository(db),
		SystemState: NewPostgresSystemStateRepository(db),
	}, nil
}

// notFound maps pgx.ErrNoRows to models.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}
