package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/logger"
	"github.com/yourusername/wealth-ops/internal/metrics"
	"github.com/yourusername/wealth-ops/internal/models"
	"github.com/yourusername/wealth-ops/internal/statestore"
)

// FetchMode determines how much data an ingestion requests
type FetchMode string

const (
	// FetchBootstrap fetches the full history window for a ticker never ingested
	FetchBootstrap FetchMode = "BOOTSTRAP"
	// FetchDailyDrip fetches yesterday only, or nothing when already current
	FetchDailyDrip FetchMode = "DAILY_DRIP"
	// FetchGapFill fetches every day after the last stored one
	FetchGapFill FetchMode = "GAP_FILL"
)

const dateLayout = "2006-01-02"

// BarWriter persists fetched bars
type BarWriter interface {
	UpsertBatch(ctx context.Context, bars []models.PriceBar) (int, error)
}

// ManagerConfig configures a Manager
type ManagerConfig struct {
	MaxHistoryYears int
	// Now overrides the clock in tests
	Now func() time.Time
}

// IngestResult describes one ticker ingestion
type IngestResult struct {
	Ticker      string    `json:"ticker"`
	Mode        FetchMode `json:"mode"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Provider    string    `json:"provider,omitempty"`
	Bars        int       `json:"bars"`
	LastUpdated time.Time `json:"last_updated"`
}

// Manager orchestrates market-data ingestion with provider failover and gap-fill logic
type Manager struct {
	primary  Provider
	fallback Provider
	sink     BarWriter
	state    statestore.Store
	log      *logger.DataLogger
	cfg      ManagerConfig
}

// NewManager creates a Manager. fallback may be nil.
func NewManager(primary, fallback Provider, sink BarWriter, state statestore.Store, log *logger.DataLogger, cfg ManagerConfig) (*Manager, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary provider is required")
	}
	if sink == nil || state == nil {
		return nil, fmt.Errorf("bar writer and state store are required")
	}
	if log == nil {
		log = logger.NewDataLogger(logger.Discard())
	}
	if cfg.MaxHistoryYears <= 0 {
		cfg.MaxHistoryYears = 50
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		primary:  primary,
		fallback: fallback,
		sink:     sink,
		state:    state,
		log:      log,
		cfg:      cfg,
	}, nil
}

// DetermineFetchParams picks the fetch mode and inclusive date range.
// A DAILY_DRIP whose start is after its end means the ticker is already current.
func DetermineFetchParams(lastUpdated *time.Time, today time.Time, maxHistoryYears int) (FetchMode, time.Time, time.Time) {
	today = truncateDay(today)
	yesterday := today.AddDate(0, 0, -1)

	if lastUpdated == nil {
		start := today.AddDate(0, 0, -365*maxHistoryYears)
		return FetchBootstrap, start, yesterday
	}

	last := truncateDay(*lastUpdated)
	if !last.Before(yesterday) {
		return FetchDailyDrip, today, yesterday
	}
	if last.Equal(yesterday.AddDate(0, 0, -1)) {
		return FetchDailyDrip, yesterday, yesterday
	}
	return FetchGapFill, last.AddDate(0, 0, 1), yesterday
}

// Ingest fetches missing bars for ticker, persists them and advances the last-updated marker
func (m *Manager) Ingest(ctx context.Context, ticker string) (*IngestResult, error) {
	ticker = strings.ToUpper(ticker)
	last := m.lastUpdated(ctx, ticker)
	mode, start, end := DetermineFetchParams(last, m.cfg.Now(), m.cfg.MaxHistoryYears)

	result := &IngestResult{Ticker: ticker, Mode: mode, Start: start, End: end}
	if last != nil {
		result.LastUpdated = *last
	}

	fields := logrus.Fields{"ticker": ticker, "mode": mode, "start": start.Format(dateLayout), "end": end.Format(dateLayout)}
	if mode == FetchDailyDrip && start.After(end) {
		m.log.WithFields(fields).Info("Ticker already up to date")
		return result, nil
	}
	m.log.WithFields(fields).Info("Ingesting ticker")

	bars, provider, err := m.FetchWithFailover(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	result.Provider = provider
	if len(bars) == 0 {
		m.log.WithField("ticker", ticker).Warn("No data returned")
		return result, nil
	}

	written, err := m.sink.UpsertBatch(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("persist %s bars: %w", ticker, err)
	}
	result.Bars = written
	metrics.RecordIngestedBars(ticker, written)

	newest := bars[0].Date
	for _, b := range bars[1:] {
		if b.Date.After(newest) {
			newest = b.Date
		}
	}
	if err := m.state.Set(ctx, statestore.LastUpdatedKey(ticker), newest.Format(dateLayout)); err != nil {
		return nil, fmt.Errorf("update last-updated marker for %s: %w", ticker, err)
	}
	result.LastUpdated = newest

	m.log.LogIngestion(ticker, string(mode), provider, written, newest)
	return result, nil
}

// IngestAll ingests each ticker in order; failures are collected, not fatal
func (m *Manager) IngestAll(ctx context.Context, tickers []string) ([]*IngestResult, error) {
	var (
		results []*IngestResult
		errs    []error
	)
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := m.Ingest(ctx, t)
		if err != nil {
			m.log.WithError(err).WithField("ticker", t).Error("Ingestion failed")
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// FetchWithFailover tries the primary provider, then the fallback on a ProviderError.
// It returns the bars and the name of the provider that served them.
func (m *Manager) FetchWithFailover(ctx context.Context, ticker string, start, end time.Time) ([]models.PriceBar, string, error) {
	bars, err := m.fetch(ctx, m.primary, ticker, start, end)
	if err == nil {
		return bars, m.primary.Name(), nil
	}
	if !errors.Is(err, ErrProvider) || m.fallback == nil {
		return nil, "", err
	}

	m.log.LogFailover(ticker, m.primary.Name(), m.fallback.Name(), err)
	bars, err = m.fetch(ctx, m.fallback, ticker, start, end)
	if err != nil {
		m.log.WithError(err).WithField("ticker", ticker).Error("Fallback provider also failed")
		return nil, "", err
	}
	return bars, m.fallback.Name(), nil
}

func (m *Manager) fetch(ctx context.Context, p Provider, ticker string, start, end time.Time) ([]models.PriceBar, error) {
	began := time.Now()
	bars, err := p.DailyCandles(ctx, ticker, start, end)
	elapsed := time.Since(began)

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordProviderRequest(strings.ToLower(p.Name()), status, elapsed.Seconds())
	if err == nil {
		m.log.LogFetch(p.Name(), ticker, start, end, len(bars), elapsed)
	}
	return bars, err
}

// lastUpdated reads the marker; a missing or unreadable marker means never ingested
func (m *Manager) lastUpdated(ctx context.Context, ticker string) *time.Time {
	raw, err := m.state.Get(ctx, statestore.LastUpdatedKey(ticker))
	if err != nil {
		if !errors.Is(err, statestore.ErrNotFound) {
			m.log.WithError(err).WithField("ticker", ticker).Error("Failed to read last-updated marker")
		}
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		m.log.WithError(err).WithField("ticker", ticker).Error("Invalid last-updated marker")
		return nil
	}
	return &t
}
