package datasource

import (
	"context"
	"strings"
	"time"

	"github.com/yourusername/wealth-ops/internal/models"
	"github.com/yourusername/wealth-ops/internal/repository"
)

// PostgresProvider serves candles previously ingested into price_bars
type PostgresProvider struct {
	repo repository.PriceBarRepository
}

// NewPostgresProvider wraps a PriceBarRepository
func NewPostgresProvider(repo repository.PriceBarRepository) *PostgresProvider {
	return &PostgresProvider{repo: repo}
}

// Name returns the provider name
func (p *PostgresProvider) Name() string {
	return "Postgres"
}

// DailyCandles reads stored bars for ticker
func (p *PostgresProvider) DailyCandles(ctx context.Context, ticker string, start, end time.Time) ([]models.PriceBar, error) {
	ticker = strings.ToUpper(ticker)
	bars, err := p.repo.GetRange(ctx, ticker, truncateDay(start), truncateDay(end))
	if err != nil {
		return nil, NewProviderError(p.Name(), ticker, err.Error(), err)
	}
	if len(bars) == 0 {
		return nil, NewProviderError(p.Name(), ticker, "No data returned", nil)
	}
	return bars, nil
}
