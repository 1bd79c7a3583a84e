package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/wealth-ops/internal/database"
	"github.com/yourusername/wealth-ops/internal/models"
)

// BacktestRunRepository persists backtest runs together with their closed trades
type BacktestRunRepository interface {
	SaveRun(ctx context.Context, run *models.BacktestRun, trades []*models.TradeRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRun, error)
	GetLatest(ctx context.Context, ticker string, limit int) ([]*models.BacktestRun, error)
	GetTrades(ctx context.Context, runID uuid.UUID) ([]*models.TradeRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PriceBarRepository stores daily OHLCV bars keyed by (ticker, date)
type PriceBarRepository interface {
	UpsertBatch(ctx context.Context, bars []models.PriceBar) (int, error)
	GetRange(ctx context.Context, ticker string, start, end time.Time) ([]models.PriceBar, error)
	LatestDate(ctx context.Context, ticker string) (time.Time, error)
}

// SystemStateRepository is a string key-value table
type SystemStateRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Transactor runs a function inside a database transaction
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(q database.Querier) error) error
}
