package service

import (
	"context"
	"strings"
	"time"

	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/logger"
	"github.com/yourusername/wealth-ops/internal/metrics"
	"github.com/yourusername/wealth-ops/internal/models"
	"github.com/yourusername/wealth-ops/internal/regime"
	"github.com/yourusername/wealth-ops/internal/signals"
)

// SignalReport is the latest-bar verdict for one ticker
type SignalReport struct {
	Ticker         string                         `json:"ticker"`
	Date           time.Time                      `json:"date"`
	Score          float64                        `json:"score"`
	Classification signals.Classification         `json:"classification"`
	RegimeIndex    string                         `json:"regime_index,omitempty"`
	Regime         regime.MarketStatus            `json:"regime"`
	BuyAllowed     bool                           `json:"buy_allowed"`
	Counts         map[signals.Classification]int `json:"counts"`
}

// SignalService scores the most recent bar of a ticker and applies its regime gate
type SignalService struct {
	pipeline     *Pipeline
	provider     datasource.Provider
	log          *logger.BacktestLogger
	regimePeriod int
	now          func() time.Time
}

// NewSignalService creates a signal service
func NewSignalService(provider datasource.Provider, log *logger.BacktestLogger) *SignalService {
	if log == nil {
		log = logger.NewBacktestLogger(logger.Discard())
	}
	return &SignalService{
		pipeline:     NewPipeline(provider, log),
		provider:     provider,
		log:          log,
		regimePeriod: regime.DefaultMAPeriod,
		now:          time.Now,
	}
}

// RegimeAllows reports whether a profile's regime direction permits buys under status.
// UNKNOWN never blocks.
func RegimeAllows(direction models.RegimeDirection, status regime.MarketStatus) bool {
	switch direction {
	case models.RegimeBull:
		return status != regime.Bear
	case models.RegimeBear:
		return status != regime.Bull
	default:
		return true
	}
}

// Evaluate scores ticker as of today
func (s *SignalService) Evaluate(ctx context.Context, ticker string, profile models.AssetProfile) (*SignalReport, error) {
	end := s.now().UTC()
	start := end.AddDate(-WarmupYears, 0, 0)

	enriched, err := s.pipeline.Load(ctx, ticker, profile, start, end)
	if err != nil {
		return nil, err
	}
	date, score, class := enriched.Composite.Latest()

	report := &SignalReport{
		Ticker:         enriched.Ticker,
		Date:           date,
		Score:          score,
		Classification: class,
		Regime:         regime.Unknown,
		Counts:         enriched.Composite.Counts(),
	}

	if index := strings.ToUpper(profile.RegimeIndex); index != "" {
		report.RegimeIndex = index
		report.Regime = s.regimeFor(ctx, index, enriched, start, end)
	}
	report.BuyAllowed = class.IsBuy() && RegimeAllows(profile.RegimeDirection, report.Regime)

	metrics.RecordSignal(string(class))
	s.log.LogSignal(report.Ticker, date, score, string(class))
	return report, nil
}

// regimeFor classifies the regime index, reusing already loaded frames when possible
func (s *SignalService) regimeFor(ctx context.Context, index string, enriched *Enriched, start, end time.Time) regime.MarketStatus {
	var frame *models.Frame
	switch {
	case index == enriched.Ticker:
		frame = enriched.Frame
	case enriched.Benchmark != nil && index == enriched.BenchmarkTicker:
		frame = enriched.Benchmark
	default:
		f, err := datasource.LoadFrame(ctx, s.provider, index, start, end)
		if err != nil {
			s.log.WithError(err).WithField("index", index).Warn("Regime index unavailable")
			return regime.Unknown
		}
		frame = f
	}

	closes, _ := frame.Column(models.ColClose)
	status, _, _ := regime.Classify(closes, s.regimePeriod)
	return status
}
