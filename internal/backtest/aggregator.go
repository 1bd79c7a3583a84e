package backtest

import (
	"encoding/json"
	"math"
)

// Recommendation is the verdict on a ticker/profile combination
type Recommendation string

const (
	RecommendAccept      Recommendation = "ACCEPT"
	RecommendReject      Recommendation = "REJECT"
	RecommendNeedsReview Recommendation = "NEEDS_REVIEW"
)

// AggregatedResult combines the three evaluation methods
type AggregatedResult struct {
	Ticker         string             `json:"ticker"`
	Historical     Metrics            `json:"historical"`
	MonteCarlo     MonteCarloResult   `json:"monte_carlo"`
	WalkForward    WalkForwardResult  `json:"walk_forward"`
	CompositeScore float64            `json:"composite_score"`
	Weights        AggregationWeights `json:"weights"`
	Recommendation Recommendation     `json:"recommendation"`
	Features       map[string]float64 `json:"features"`
}

// AggregationWeights weight each evaluation method
type AggregationWeights struct {
	Historical  float64 `json:"historical"`
	MonteCarlo  float64 `json:"monte_carlo"`
	WalkForward float64 `json:"walk_forward"`
}

// DefaultAggregationWeights favours out-of-sample evidence
func DefaultAggregationWeights() AggregationWeights {
	return AggregationWeights{Historical: 0.3, MonteCarlo: 0.2, WalkForward: 0.5}
}

// AggregateResults scores and classifies a ticker from all three methods
func AggregateResults(historical Metrics, monteCarlo MonteCarloResult, walkForward WalkForwardResult, weights AggregationWeights) AggregatedResult {
	total := weights.Historical + weights.MonteCarlo + weights.WalkForward
	if total <= 0 {
		weights = DefaultAggregationWeights()
		total = 1
	}

	historicalScore := CalculateCompositeScore(historical)
	monteCarloScore := normalize(monteCarlo.MeanReturn, -0.5, 1.0) * (1 - monteCarlo.ProbabilityOfRuin)
	walkForwardScore := CalculateCompositeScore(walkForward.AggregatedMetrics)
	composite := (historicalScore*weights.Historical +
		monteCarloScore*weights.MonteCarlo +
		walkForwardScore*weights.WalkForward) / total

	return AggregatedResult{
		Ticker:         historical.Ticker,
		Historical:     historical,
		MonteCarlo:     monteCarlo,
		WalkForward:    walkForward,
		CompositeScore: composite,
		Weights:        weights,
		Recommendation: GenerateRecommendation(composite, walkForward.ConsistencyScore, historical.TotalReturn, walkForward.AggregatedMetrics.TotalReturn),
		Features:       extractFeatures(historical, monteCarlo, walkForward),
	}
}

// CalculateCompositeScore maps a metrics summary onto [0, 1]
func CalculateCompositeScore(metrics Metrics) float64 {
	sharpeScore := normalize(metrics.SharpeRatio, -2, 3)
	returnScore := normalize(metrics.TotalReturn, -0.5, 1.0)
	profitFactorScore := normalize(reportableProfitFactor(metrics.ProfitFactor), 0, 3)
	drawdownScore := 1.0 - normalize(metrics.MaxDrawdown, 0, 0.5)
	winRateScore := normalize(metrics.WinRate, 0, 1)

	return sharpeScore*0.30 +
		returnScore*0.20 +
		profitFactorScore*0.20 +
		drawdownScore*0.15 +
		winRateScore*0.15
}

// GenerateRecommendation applies the acceptance thresholds
func GenerateRecommendation(score, consistency, historicalReturn, walkForwardReturn float64) Recommendation {
	if score > 0.7 && historicalReturn > 0 && walkForwardReturn > 0 && consistency > 0.6 {
		return RecommendAccept
	}
	if score < 0.4 || historicalReturn < 0 || walkForwardReturn < 0 || consistency < 0.4 {
		return RecommendReject
	}
	return RecommendNeedsReview
}

// ToJSON exports the aggregated result
func (a AggregatedResult) ToJSON() (string, error) {
	out := a
	out.MonteCarlo.Distribution = nil
	out.WalkForward.Windows = nil
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func extractFeatures(h Metrics, mc MonteCarloResult, wf WalkForwardResult) map[string]float64 {
	return map[string]float64{
		"total_return":      h.TotalReturn,
		"sharpe_ratio":      h.SharpeRatio,
		"max_drawdown":      h.MaxDrawdown,
		"profit_factor":     reportableProfitFactor(h.ProfitFactor),
		"win_rate":          h.WinRate,
		"monte_carlo_var95": mc.VaR95,
		"monte_carlo_ruin":  mc.ProbabilityOfRuin,
		"consistency_score": wf.ConsistencyScore,
		"overfit_score":     wf.OverfitScore,
	}
}

func normalize(value, lo, hi float64) float64 {
	if hi-lo == 0 || math.IsNaN(value) {
		return 0
	}
	v := (value - lo) / (hi - lo)
	return math.Max(0, math.Min(1, v))
}
