package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/wealth-ops/internal/models"
)

// Provider fetches daily OHLCV candles from one market-data source
type Provider interface {
	// Name identifies the provider in logs, metrics and errors
	Name() string

	// DailyCandles returns bars with start <= date <= end, oldest first
	DailyCandles(ctx context.Context, ticker string, start, end time.Time) ([]models.PriceBar, error)
}

// ErrProvider matches every ProviderError
var ErrProvider = errors.New("provider error")

// ProviderError is returned when a provider cannot deliver candles for a ticker
type ProviderError struct {
	Provider string
	Ticker   string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] Failed to fetch %s: %s", e.Provider, e.Ticker, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches ErrProvider
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// NewProviderError creates a ProviderError
func NewProviderError(provider, ticker, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Ticker: ticker, Message: message, Err: err}
}

// LoadFrame fetches candles from p and builds an OHLCV frame
func LoadFrame(ctx context.Context, p Provider, ticker string, start, end time.Time) (*models.Frame, error) {
	bars, err := p.DailyCandles(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	frame, err := models.FrameFromBars(bars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return frame, nil
}

// truncateDay drops the clock component, keeping the calendar date in UTC
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
