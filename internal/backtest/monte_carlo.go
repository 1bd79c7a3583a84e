package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// MonteCarloConfig configures trade resampling
type MonteCarloConfig struct {
	Iterations     int
	Seed           int64
	InitialCapital float64
	// RuinThreshold is the equity fraction at or below which a path counts as ruined
	RuinThreshold float64
}

// MonteCarloResult summarises the resampled equity distribution
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	TradesPerPath       int                `json:"trades_per_path"`
	MeanReturn          float64            `json:"mean_return"`
	MedianReturn        float64            `json:"median_return"`
	StdReturn           float64            `json:"std_return"`
	VaR95               float64            `json:"var_95"`
	VaR99               float64            `json:"var_99"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	ProbabilityOfRuin   float64            `json:"probability_of_ruin"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
	Distribution        []float64          `json:"distribution"`
}

// RunMonteCarlo bootstraps closed-trade P&L into alternative equity paths
func RunMonteCarlo(ctx context.Context, trades []Trade, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if cfg.InitialCapital <= 0 {
		return MonteCarloResult{}, fmt.Errorf("initial capital must be positive")
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	if cfg.RuinThreshold <= 0 {
		cfg.RuinThreshold = 0.5
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	pnls := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.Status == TradeClosed {
			pnls = append(pnls, t.PnL)
		}
	}

	result := MonteCarloResult{
		Iterations:    cfg.Iterations,
		TradesPerPath: len(pnls),
	}
	if len(pnls) == 0 {
		result.ConfidenceIntervals = map[string]float64{}
		return result, nil
	}

	rng := rand.New(rand.NewSource(seed))
	ruinLevel := cfg.InitialCapital * cfg.RuinThreshold
	distribution := make([]float64, cfg.Iterations)
	ruined := 0

	for i := 0; i < cfg.Iterations; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return MonteCarloResult{}, err
			}
		}
		equity := cfg.InitialCapital
		hitRuin := false
		for range pnls {
			equity += pnls[rng.Intn(len(pnls))]
			if equity <= ruinLevel {
				hitRuin = true
			}
			if equity <= 0 {
				equity = 0
				break
			}
		}
		if hitRuin {
			ruined++
		}
		distribution[i] = (equity - cfg.InitialCapital) / cfg.InitialCapital
	}

	mean, std := meanStd(distribution)
	result.MeanReturn = mean
	result.MedianReturn = percentile(distribution, 0.5)
	result.StdReturn = std
	result.VaR95 = percentile(distribution, 0.05)
	result.VaR99 = percentile(distribution, 0.01)
	result.ProbabilityOfProfit = probabilityAbove(distribution, 0)
	result.ProbabilityOfRuin = float64(ruined) / float64(cfg.Iterations)
	result.ConfidenceIntervals = CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99})
	result.Distribution = distribution
	return result, nil
}

// CalculateConfidenceIntervals returns the width of each central interval
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		results[formatPercent(level)] = percentile(distribution, 1.0-p) - percentile(distribution, p)
	}
	return results
}

// ToJSON exports the summary without the raw distribution
func (m MonteCarloResult) ToJSON() (string, error) {
	out := m
	out.Distribution = nil
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
