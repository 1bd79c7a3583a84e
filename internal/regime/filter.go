// Package regime implements the market circuit breaker: an index trading above its
// long moving average is BULL, below it BEAR.
package regime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/indicators"
	"github.com/yourusername/wealth-ops/internal/logger"
	"github.com/yourusername/wealth-ops/internal/metrics"
	"github.com/yourusername/wealth-ops/internal/statestore"
)

// MarketStatus is the evaluated regime
type MarketStatus string

const (
	Bull    MarketStatus = "BULL"
	Bear    MarketStatus = "BEAR"
	Unknown MarketStatus = "UNKNOWN"
)

// Defaults
const (
	DefaultIndexTicker = "SPY"
	DefaultMAPeriod    = 200
	// lookbackBuffer pads the calendar window for holidays
	lookbackBuffer = 30
)

// ParseStatus maps a stored value to a MarketStatus; anything unrecognised is Unknown
func ParseStatus(s string) MarketStatus {
	switch MarketStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case Bull:
		return Bull
	case Bear:
		return Bear
	}
	return Unknown
}

// Evaluation is the detail behind one regime decision
type Evaluation struct {
	Status MarketStatus
	Close  float64
	SMA    float64
	Bars   int
	AsOf   time.Time
}

// Filter evaluates the regime from index candles and records it in a state store
type Filter struct {
	provider datasource.Provider
	state    statestore.Store
	audit    *logger.AuditLogger
	index    string
	period   int
	now      func() time.Time
}

// Option configures a Filter
type Option func(*Filter)

// WithIndex overrides the index ticker
func WithIndex(ticker string) Option {
	return func(f *Filter) {
		if ticker != "" {
			f.index = strings.ToUpper(ticker)
		}
	}
}

// WithPeriod overrides the moving-average period
func WithPeriod(period int) Option {
	return func(f *Filter) {
		if period > 0 {
			f.period = period
		}
	}
}

// WithClock overrides the evaluation date source
func WithClock(now func() time.Time) Option {
	return func(f *Filter) { f.now = now }
}

// NewFilter creates a regime filter
func NewFilter(provider datasource.Provider, state statestore.Store, audit *logger.AuditLogger, opts ...Option) *Filter {
	if audit == nil {
		audit = logger.NewAuditLogger(logger.Discard())
	}
	f := &Filter{
		provider: provider,
		state:    state,
		audit:    audit,
		index:    DefaultIndexTicker,
		period:   DefaultMAPeriod,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Classify compares the last close with its simple moving average.
// Fewer than period closes or an undefined average yields Unknown.
func Classify(closes []float64, period int) (MarketStatus, float64, float64) {
	if len(closes) < period || period <= 0 {
		return Unknown, math.NaN(), math.NaN()
	}
	sma, err := indicators.SMA(closes, period)
	if err != nil {
		return Unknown, math.NaN(), math.NaN()
	}
	last := closes[len(closes)-1]
	avg := sma[len(sma)-1]
	if math.IsNaN(avg) || math.IsNaN(last) {
		return Unknown, last, avg
	}
	if last > avg {
		return Bull, last, avg
	}
	return Bear, last, avg
}

// Evaluate computes the current regime and stores it under statestore.MarketStatusKey.
// Any failure is logged and reported as Unknown.
func (f *Filter) Evaluate(ctx context.Context) MarketStatus {
	eval, err := f.Calculate(ctx)
	if err != nil {
		f.audit.WithError(err).WithField("index", f.index).Error("Failed to evaluate regime")
		metrics.UpdateMarketRegime(f.index, string(Unknown))
		return Unknown
	}

	previous := f.CurrentStatus(ctx)
	if err := f.state.Set(ctx, statestore.MarketStatusKey, string(eval.Status)); err != nil {
		f.audit.WithError(err).Error("Failed to update market status")
		return Unknown
	}
	metrics.UpdateMarketRegime(f.index, string(eval.Status))
	if previous != eval.Status {
		f.audit.LogRegimeChange(f.index, string(previous), string(eval.Status), eval.Close, eval.SMA)
	}
	return eval.Status
}

// Calculate fetches index candles and classifies the latest bar without storing it
func (f *Filter) Calculate(ctx context.Context) (*Evaluation, error) {
	if f.provider == nil {
		return nil, errors.New("no market data provider configured")
	}
	today := f.now().UTC()
	start := today.AddDate(0, 0, -(f.period*7/5 + lookbackBuffer))

	bars, err := f.provider.DailyCandles(ctx, f.index, start, today)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.index, err)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	status, last, avg := Classify(closes, f.period)

	eval := &Evaluation{Status: status, Close: last, SMA: avg, Bars: len(bars)}
	if len(bars) > 0 {
		eval.AsOf = bars[len(bars)-1].Date
	}
	if len(bars) < f.period {
		f.audit.WithFields(logrus.Fields{"index": f.index, "bars": len(bars), "period": f.period}).
			Warn("Insufficient data for regime moving average")
	}
	return eval, nil
}

// CurrentStatus reads the stored regime; a missing or unreadable value is Unknown
func (f *Filter) CurrentStatus(ctx context.Context) MarketStatus {
	v, err := f.state.Get(ctx, statestore.MarketStatusKey)
	if err != nil {
		if !errors.Is(err, statestore.ErrNotFound) {
			f.audit.WithError(err).Error("Failed to get market status")
		}
		return Unknown
	}
	return ParseStatus(v)
}

// AllowsBuys reports whether new long entries are permitted under status
func AllowsBuys(status MarketStatus) bool {
	return status != Bear
}
