package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/features"
	"github.com/yourusername/wealth-ops/internal/models"
	"github.com/yourusername/wealth-ops/internal/signals"
)

// WarmupYears of history loaded ahead of an evaluation window so the
// 12-month momentum and 252-bar z-scores are defined on its first bar
const WarmupYears = 3

// Enriched is a price frame with features and the composite signal attached
type Enriched struct {
	Ticker          string
	Frame           *models.Frame
	Composite       *signals.CompositeResult
	BenchmarkTicker string
	Benchmark       *models.Frame
}

// Pipeline loads candles and runs them through features and the composite scorer
type Pipeline struct {
	provider  datasource.Provider
	assembler *features.Assembler
	scorer    *signals.Scorer
	logger    logrus.FieldLogger
}

// NewPipeline creates a pipeline reading from provider
func NewPipeline(provider datasource.Provider, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		provider:  provider,
		assembler: features.NewAssembler(logger),
		scorer:    signals.NewScorer(logger),
		logger:    logger,
	}
}

// Load fetches ticker (and its benchmark, when the profile names one) over
// [start, end] and returns the enriched frame
func (p *Pipeline) Load(ctx context.Context, ticker string, profile models.AssetProfile, start, end time.Time) (*Enriched, error) {
	ticker = strings.ToUpper(ticker)
	frame, err := datasource.LoadFrame(ctx, p.provider, ticker, start, end)
	if err != nil {
		return nil, err
	}

	benchmarkTicker := strings.ToUpper(profile.BenchmarkIndex)
	benchmark := p.loadBenchmark(ctx, ticker, benchmarkTicker, start, end)

	enriched, err := p.assembler.Compute(frame, features.OptionsForProfile(profile, benchmark))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	composite, err := p.scorer.Score(enriched, profile.VolumeFeatures)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	withSignal, err := signals.AttachSignal(enriched, composite)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	out := &Enriched{Ticker: ticker, Frame: withSignal, Composite: composite}
	if benchmark != nil {
		out.BenchmarkTicker = benchmarkTicker
		out.Benchmark = benchmark
	}
	return out, nil
}

// loadBenchmark returns nil when there is no benchmark or it cannot be loaded
func (p *Pipeline) loadBenchmark(ctx context.Context, ticker, index string, start, end time.Time) *models.Frame {
	if index == "" || index == ticker {
		return nil
	}
	frame, err := datasource.LoadFrame(ctx, p.provider, index, start, end)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{"ticker": ticker, "benchmark": index}).
			Warn("Benchmark unavailable, relative strength disabled")
		return nil
	}
	return frame
}
