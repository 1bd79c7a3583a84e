package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/wealth-ops/internal/config"
)

// BacktestConfig is the resolved run configuration for the backtest binary
type BacktestConfig struct {
	StartDate            time.Time
	EndDate              time.Time
	InitialCapital       float64
	OutputPath           string
	RiskFreeRate         float64
	MonteCarloIterations int
	MonteCarloSeed       int64
	Workers              int
	WalkForward          WalkForwardConfig
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.Config) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("config is required")
	}
	start, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("invalid end date: %w", err)
	}

	bt := BacktestConfig{
		StartDate:            start,
		EndDate:              end,
		InitialCapital:       cfg.Backtest.InitialCapital,
		OutputPath:           cfg.Backtest.OutputPath,
		RiskFreeRate:         cfg.Backtest.RiskFreeRate,
		MonteCarloIterations: cfg.Backtest.MonteCarloIterations,
		MonteCarloSeed:       cfg.Backtest.MonteCarloSeed,
		Workers:              cfg.Backtest.Workers,
		WalkForward: WalkForwardConfig{
			Splitter: SplitterConfig{
				TrainYears:   cfg.WalkForward.TrainYears,
				TestMonths:   cfg.WalkForward.TestMonths,
				RollMonths:   cfg.WalkForward.RollMonths,
				MinTrainRows: cfg.WalkForward.MinTrainRows,
			},
			MinTradesPerWindow: cfg.WalkForward.MinTradesPerWindow,
			Workers:            cfg.Backtest.Workers,
			RiskFreeRate:       cfg.Backtest.RiskFreeRate,
		},
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if !b.StartDate.Before(b.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}
	if b.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if b.MonteCarloIterations <= 0 {
		return fmt.Errorf("monte carlo iterations must be positive")
	}
	if b.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	return b.WalkForward.Splitter.Validate()
}
