package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/wealth-ops/internal/config"
	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/regime"
)

// Ingester ingests market data for a set of tickers
type Ingester interface {
	IngestAll(ctx context.Context, tickers []string) ([]*datasource.IngestResult, error)
}

// RegimeEvaluator evaluates and stores the market regime
type RegimeEvaluator interface {
	Evaluate(ctx context.Context) regime.MarketStatus
}

// Dependencies are the collaborators wired into the standard jobs; nil members are skipped
type Dependencies struct {
	Ingester        Ingester
	Regime          RegimeEvaluator
	NightlyBacktest JobFunc
	Tickers         []string
}

// RegisterJobs schedules every configured job whose dependency is present
func RegisterJobs(s *Scheduler, cfg config.ScheduleConfig, deps Dependencies) error {
	if cfg.DailyIngest != "" && deps.Ingester != nil {
		tickers := deps.Tickers
		err := s.Schedule(JobDailyIngest, cfg.DailyIngest, 4*time.Hour, func(ctx context.Context) error {
			results, err := deps.Ingester.IngestAll(ctx, tickers)
			bars := 0
			for _, r := range results {
				bars += r.Bars
			}
			s.logger.WithField("bars", bars).WithField("tickers", len(results)).Info("Daily ingest finished")
			return err
		})
		if err != nil {
			return err
		}
	}

	if cfg.RegimeCheck != "" && deps.Regime != nil {
		err := s.Schedule(JobRegimeCheck, cfg.RegimeCheck, 10*time.Minute, func(ctx context.Context) error {
			status := deps.Regime.Evaluate(ctx)
			if status == regime.Unknown {
				return fmt.Errorf("regime evaluation returned %s", status)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if cfg.NightlyBacktest != "" && deps.NightlyBacktest != nil {
		if err := s.Schedule(JobNightlyBacktest, cfg.NightlyBacktest, 6*time.Hour, deps.NightlyBacktest); err != nil {
			return err
		}
	}
	return nil
}
