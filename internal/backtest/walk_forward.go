package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/wealth-ops/internal/models"
)

// WalkForwardConfig configures walk-forward evaluation
type WalkForwardConfig struct {
	Splitter           SplitterConfig
	MinTradesPerWindow int
	Workers            int
	RiskFreeRate       float64
}

// WalkForwardWindow is one evaluated split
type WalkForwardWindow struct {
	WindowID     int       `json:"window_id"`
	TrainStart   time.Time `json:"train_start"`
	TrainEnd     time.Time `json:"train_end"`
	TestStart    time.Time `json:"test_start"`
	TestEnd      time.Time `json:"test_end"`
	TrainBars    int       `json:"train_bars"`
	TestBars     int       `json:"test_bars"`
	TrainMetrics Metrics   `json:"train_metrics"`
	TestMetrics  Metrics   `json:"test_metrics"`
	TestResult   *Result   `json:"-"`
}

// WalkForwardResult aggregates the out-of-sample windows
type WalkForwardResult struct {
	Ticker            string              `json:"ticker"`
	Windows           []WalkForwardWindow `json:"windows"`
	AggregatedMetrics Metrics             `json:"aggregated_metrics"`
	ConsistencyScore  float64             `json:"consistency_score"`
	OverfitScore      float64             `json:"overfit_score"`
}

// RunWalkForward evaluates the engine on every split of an enriched frame.
// Features must be computed over the full history before splitting so that
// test windows keep their indicator warm-up. Windows run concurrently, each
// with its own engine state.
func RunWalkForward(ctx context.Context, engine *Engine, ticker string, frame *models.Frame, cfg WalkForwardConfig) (WalkForwardResult, error) {
	if engine == nil {
		return WalkForwardResult{}, fmt.Errorf("engine is required")
	}
	splitter, err := NewSplitter(cfg.Splitter)
	if err != nil {
		return WalkForwardResult{}, err
	}
	splits := splitter.All(frame)

	windows := make([]WalkForwardWindow, len(splits))
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, split := range splits {
		i, split := i, split
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			train, err := engine.Run(ticker, split.Train)
			if err != nil {
				return fmt.Errorf("window %d train run: %w", split.Index, err)
			}
			test, err := engine.Run(ticker, split.Test)
			if err != nil {
				return fmt.Errorf("window %d test run: %w", split.Index, err)
			}
			windows[i] = WalkForwardWindow{
				WindowID:     split.Index + 1,
				TrainStart:   split.Train.Date(0),
				TrainEnd:     split.TrainEnd,
				TestStart:    split.TestStart,
				TestEnd:      split.TestEnd,
				TrainBars:    split.Train.Len(),
				TestBars:     split.Test.Len(),
				TrainMetrics: CalculateMetrics(train, cfg.RiskFreeRate),
				TestMetrics:  CalculateMetrics(test, cfg.RiskFreeRate),
				TestResult:   test,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WalkForwardResult{}, err
	}

	kept := windows[:0]
	for _, w := range windows {
		if meetsTradeThreshold(cfg.MinTradesPerWindow, w) {
			kept = append(kept, w)
		}
	}

	return WalkForwardResult{
		Ticker:            ticker,
		Windows:           kept,
		AggregatedMetrics: aggregateWalkForward(kept),
		ConsistencyScore:  CalculateConsistency(kept),
		OverfitScore:      calculateOverfitScore(kept),
	}, nil
}

func meetsTradeThreshold(minTrades int, w WalkForwardWindow) bool {
	if minTrades <= 0 {
		return true
	}
	return w.TestMetrics.TotalTrades >= minTrades
}

// CalculateConsistency is the share of windows with a positive out-of-sample return
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	profitable := 0
	for _, w := range windows {
		if w.TestMetrics.TotalReturn > 0 {
			profitable++
		}
	}
	return float64(profitable) / float64(len(windows))
}

// calculateOverfitScore compares in-sample and out-of-sample returns;
// 0 means the test windows kept pace with training
func calculateOverfitScore(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	trainReturn := 0.0
	testReturn := 0.0
	for _, w := range windows {
		trainReturn += w.TrainMetrics.TotalReturn
		testReturn += w.TestMetrics.TotalReturn
	}
	if trainReturn == 0 {
		return 0
	}
	return (trainReturn - testReturn) / trainReturn
}

func aggregateWalkForward(windows []WalkForwardWindow) Metrics {
	metrics := Metrics{ExitReasons: map[ExitReason]int{}}
	if len(windows) == 0 {
		return metrics
	}
	for _, w := range windows {
		metrics.TotalReturn += w.TestMetrics.TotalReturn
		metrics.SharpeRatio += w.TestMetrics.SharpeRatio
		metrics.MaxDrawdown += w.TestMetrics.MaxDrawdown
		metrics.WinRate += w.TestMetrics.WinRate
		metrics.TotalTrades += w.TestMetrics.TotalTrades
		metrics.WinningTrades += w.TestMetrics.WinningTrades
		metrics.LosingTrades += w.TestMetrics.LosingTrades
		metrics.TradingDays += w.TestMetrics.TradingDays
		for reason, n := range w.TestMetrics.ExitReasons {
			metrics.ExitReasons[reason] += n
		}
	}
	n := float64(len(windows))
	metrics.TotalReturn /= n
	metrics.SharpeRatio /= n
	metrics.MaxDrawdown /= n
	metrics.WinRate /= n
	metrics.StartDate = windows[0].TestStart
	metrics.EndDate = windows[len(windows)-1].TestEnd
	return metrics
}

// ToJSON exports the walk-forward result
func (w WalkForwardResult) ToJSON() (string, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
