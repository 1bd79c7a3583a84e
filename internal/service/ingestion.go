package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/regime"
)

// TickerIngester is satisfied by *datasource.Manager
type TickerIngester interface {
	Ingest(ctx context.Context, ticker string) (*datasource.IngestResult, error)
}

// IngestionService runs one ingestion pass over the configured tickers, then refreshes the regime
type IngestionService struct {
	ingester TickerIngester
	regime   *regime.Filter
	writer   *ValidatingWriter
	logger   logrus.FieldLogger
}

// NewIngestionService creates a new ingestion service. regimeFilter and writer may be nil.
func NewIngestionService(ingester TickerIngester, regimeFilter *regime.Filter, writer *ValidatingWriter, logger logrus.FieldLogger) *IngestionService {
	return &IngestionService{
		ingester: ingester,
		regime:   regimeFilter,
		writer:   writer,
		logger:   logger,
	}
}

// IngestAll ingests every ticker; a failing ticker does not stop the pass
func (s *IngestionService) IngestAll(ctx context.Context, tickers []string) ([]*datasource.IngestResult, error) {
	results, m := s.run(ctx, tickers)
	if m.Errors > 0 {
		return results, fmt.Errorf("%d of %d tickers failed", m.Errors, m.TotalTickers)
	}
	return results, nil
}

// RunOnce ingests tickers and evaluates the regime, returning the pass statistics
func (s *IngestionService) RunOnce(ctx context.Context, tickers []string) (*IngestionMetrics, error) {
	_, m := s.run(ctx, tickers)
	if s.regime != nil {
		m.Regime = string(s.regime.Evaluate(ctx))
	}
	s.logger.WithField("summary", m.String()).Info("Ingestion pass finished")
	if m.Errors > 0 {
		return m, fmt.Errorf("%d of %d tickers failed", m.Errors, m.TotalTickers)
	}
	return m, nil
}

func (s *IngestionService) run(ctx context.Context, tickers []string) ([]*datasource.IngestResult, *IngestionMetrics) {
	m := NewIngestionMetrics()
	m.TotalTickers = len(tickers)
	var before int64
	if s.writer != nil {
		before = s.writer.Rejected()
	}

	var results []*datasource.IngestResult
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			m.RecordError()
			continue
		}
		res, err := s.ingester.Ingest(ctx, ticker)
		if err != nil {
			m.RecordError()
			s.logger.WithError(err).WithField("ticker", ticker).Error("Failed to ingest ticker")
			continue
		}
		m.RecordTicker(string(res.Mode), res.Bars)
		results = append(results, res)
	}

	if s.writer != nil {
		m.Rejected = s.writer.Rejected() - before
	}
	m.Finish()
	return results, m
}
