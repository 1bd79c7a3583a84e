package backtest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// TradingDaysPerYear annualises daily statistics
const TradingDaysPerYear = 252.0

// Metrics is the extended performance summary of a run
type Metrics struct {
	Ticker           string             `json:"ticker"`
	TotalReturn      float64            `json:"total_return"`
	AnnualizedReturn float64            `json:"annualized_return"`
	CAGR             float64            `json:"cagr"`
	MaxDrawdown      float64            `json:"max_drawdown"`
	SharpeRatio      float64            `json:"sharpe_ratio"`
	SortinoRatio     float64            `json:"sortino_ratio"`
	CalmarRatio      float64            `json:"calmar_ratio"`
	ValueAtRisk95    float64            `json:"var_95"`
	ValueAtRisk99    float64            `json:"var_99"`
	TotalTrades      int                `json:"total_trades"`
	WinningTrades    int                `json:"winning_trades"`
	LosingTrades     int                `json:"losing_trades"`
	WinRate          float64            `json:"win_rate"`
	ProfitFactor     float64            `json:"profit_factor"`
	AverageWin       float64            `json:"average_win"`
	AverageLoss      float64            `json:"average_loss"`
	Expectancy       float64            `json:"expectancy"`
	LargestWin       float64            `json:"largest_win"`
	LargestLoss      float64            `json:"largest_loss"`
	AverageDaysHeld  float64            `json:"average_days_held"`
	TotalCommission  float64            `json:"total_commission"`
	TotalFunding     float64            `json:"total_funding"`
	ExitReasons      map[ExitReason]int `json:"exit_reasons"`
	StartDate        time.Time          `json:"start_date"`
	EndDate          time.Time          `json:"end_date"`
	TradingDays      int                `json:"trading_days"`
	ParameterHash    string             `json:"parameter_hash,omitempty"`
}

// CalculateMetrics derives the extended metrics from a run result
func CalculateMetrics(result *Result, riskFreeRate float64) Metrics {
	metrics := Metrics{ExitReasons: map[ExitReason]int{}}
	if result == nil {
		return metrics
	}

	metrics.Ticker = result.Ticker
	metrics.StartDate, metrics.EndDate = result.Period()
	metrics.TradingDays = len(result.EquityCurve)
	metrics.TotalReturn = result.TotalReturn
	metrics.AnnualizedReturn = result.AnnualizedReturn
	metrics.CAGR = calculateCAGR(result.InitialCapital, result.FinalEquity, metrics.StartDate, metrics.EndDate)
	metrics.MaxDrawdown = result.MaxDrawdown

	returns := result.EquityCurve.GetReturns()
	metrics.SharpeRatio = calculateSharpeRatio(returns, riskFreeRate)
	metrics.SortinoRatio = calculateSortinoRatio(returns, riskFreeRate)
	if metrics.MaxDrawdown > 0 {
		metrics.CalmarRatio = metrics.AnnualizedReturn / metrics.MaxDrawdown
	}
	metrics.ValueAtRisk95 = calculateVaR(returns, 0.95)
	metrics.ValueAtRisk99 = calculateVaR(returns, 0.99)

	metrics.TotalTrades = result.TotalTrades
	metrics.WinningTrades = result.WinningTrades
	metrics.LosingTrades = result.LosingTrades
	metrics.WinRate = result.WinRate
	metrics.ProfitFactor = result.ProfitFactor

	closed := result.ClosedTrades()
	metrics.AverageWin, metrics.AverageLoss, metrics.LargestWin, metrics.LargestLoss = calculateTradeStats(closed)
	metrics.Expectancy = calculateExpectancy(closed)
	daysHeld := 0
	for _, t := range closed {
		daysHeld += t.DaysHeld
		metrics.TotalCommission += t.Commission
		metrics.TotalFunding += t.FundingFees
		metrics.ExitReasons[t.ExitReason]++
	}
	if len(closed) > 0 {
		metrics.AverageDaysHeld = float64(daysHeld) / float64(len(closed))
	}

	return metrics
}

// MarshalJSON caps an infinite profit factor
func (m Metrics) MarshalJSON() ([]byte, error) {
	type alias Metrics
	a := alias(m)
	a.ProfitFactor = reportableProfitFactor(a.ProfitFactor)
	return json.Marshal(a)
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func calculateSharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	return (average(returns) - riskFreeRate/TradingDaysPerYear) / std * math.Sqrt(TradingDaysPerYear)
}

func calculateSortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := downsideStddev(returns)
	if std == 0 {
		return 0
	}
	return (average(returns) - riskFreeRate/TradingDaysPerYear) / std * math.Sqrt(TradingDaysPerYear)
}

func calculateExpectancy(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	net := 0.0
	for _, t := range trades {
		net += t.PnL
	}
	return net / float64(len(trades))
}

// calculateCAGR compounds over calendar time between the first and last bar
func calculateCAGR(initial, final float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	if initial <= 0 || final <= 0 || days <= 0 {
		return 0
	}
	years := days / 365.0
	return math.Pow(final/initial, 1.0/years) - 1.0
}

func calculateVaR(returns []float64, level float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64{}, returns...)
	sort.Float64s(sorted)
	index := int(math.Floor((1.0 - level) * float64(len(sorted))))
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func calculateTradeStats(trades []Trade) (avgWin, avgLoss, largestWin, largestLoss float64) {
	wins, losses := 0, 0
	winSum, lossSum := 0.0, 0.0
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			wins++
			winSum += t.PnL
			largestWin = math.Max(largestWin, t.PnL)
		case t.PnL < 0:
			losses++
			lossSum += t.PnL
			largestLoss = math.Min(largestLoss, t.PnL)
		}
	}
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}
	return avgWin, avgLoss, largestWin, largestLoss
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	return mean / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func downsideStddev(values []float64) float64 {
	negatives := make([]float64, 0)
	for _, v := range values {
		if v < 0 {
			negatives = append(negatives, v)
		}
	}
	return stddev(negatives)
}

// HashParameters creates a stable hash for parameter maps
func HashParameters(params map[string]interface{}) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
