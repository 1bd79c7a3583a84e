package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/wealth-ops/internal/database"
	"github.com/yourusername/wealth-ops/internal/models"
)

// PostgresPriceBarRepository implements PriceBarRepository for PostgreSQL
type PostgresPriceBarRepository struct {
	q  database.Querier
	tx Transactor
}

// NewPostgresPriceBarRepository creates a new price bar repository
func NewPostgresPriceBarRepository(db *database.DB) PriceBarRepository {
	return &PostgresPriceBarRepository{q: db.Querier(), tx: db}
}

// UpsertBatch writes bars, replacing any existing (ticker, date) row
func (r *PostgresPriceBarRepository) UpsertBatch(ctx context.Context, bars []models.PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	written := 0
	err := r.tx.WithTransaction(ctx, func(q database.Querier) error {
		for _, b := range bars {
			_, err := q.Exec(ctx, `
				INSERT INTO price_bars (ticker, date, open, high, low, close, volume, adj_close, source)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
				ON CONFLICT (ticker, date) DO UPDATE SET
					open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
					close = EXCLUDED.close, volume = EXCLUDED.volume,
					adj_close = EXCLUDED.adj_close, source = EXCLUDED.source`,
				strings.ToUpper(b.Ticker), b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, b.AdjClose, b.Source,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert %s bar %s: %w", b.Ticker, b.Date.Format("2006-01-02"), err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// GetRange returns bars for ticker with start <= date <= end, oldest first
func (r *PostgresPriceBarRepository) GetRange(ctx context.Context, ticker string, start, end time.Time) ([]models.PriceBar, error) {
	rows, err := r.q.Query(ctx, `
		SELECT ticker, date, open, high, low, close, volume, adj_close, source, created_at
		FROM price_bars
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, strings.ToUpper(ticker), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close,
			&b.Volume, &b.AdjClose, &b.Source, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestDate returns the newest stored date for ticker, or models.ErrNotFound
func (r *PostgresPriceBarRepository) LatestDate(ctx context.Context, ticker string) (time.Time, error) {
	var latest *time.Time
	err := r.q.QueryRow(ctx, `SELECT MAX(date) FROM price_bars WHERE ticker = $1`,
		strings.ToUpper(ticker)).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest date: %w", err)
	}
	if latest == nil {
		return time.Time{}, models.ErrNotFound
	}
	return *latest, nil
}
