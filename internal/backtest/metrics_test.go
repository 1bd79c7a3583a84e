package backtest

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curveFrom(values ...float64) EquityCurve {
	curve := make(EquityCurve, len(values))
	peak := 0.0
	for i, v := range values {
		if i == 0 || v > peak {
			peak = v
		}
		curve[i] = EquityPoint{Time: baseDate.AddDate(0, 0, i), Value: v, Drawdown: (peak - v) / peak}
	}
	return curve
}

func TestCalculateMetrics(t *testing.T) {
	trades := []Trade{
		{Status: TradeClosed, PnL: 100, DaysHeld: 4, Commission: 1, ExitReason: ExitTakeProfit},
		{Status: TradeClosed, PnL: -50, DaysHeld: 2, Commission: 1, ExitReason: ExitStopLoss},
		{Status: TradeClosed, PnL: 30, DaysHeld: 10, Commission: 1, FundingFees: 0.5, ExitReason: ExitTimeStop},
	}
	result := newResult("AAPL", 1000, trades, curveFrom(1000, 1100, 1050, 1080))

	m := CalculateMetrics(result, 0)
	assert.Equal(t, "AAPL", m.Ticker)
	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-12)
	assert.InDelta(t, 130.0/50.0, m.ProfitFactor, 1e-12)
	assert.InDelta(t, 0.08, m.TotalReturn, 1e-12)
	assert.InDelta(t, 50.0/1100.0, m.MaxDrawdown, 1e-12)
	assert.Equal(t, 65.0, m.AverageWin)
	assert.Equal(t, -50.0, m.AverageLoss)
	assert.Equal(t, 100.0, m.LargestWin)
	assert.Equal(t, -50.0, m.LargestLoss)
	assert.InDelta(t, 80.0/3.0, m.Expectancy, 1e-12)
	assert.InDelta(t, 16.0/3.0, m.AverageDaysHeld, 1e-12)
	assert.Equal(t, 3.0, m.TotalCommission)
	assert.Equal(t, 0.5, m.TotalFunding)
	assert.Equal(t, map[ExitReason]int{ExitTakeProfit: 1, ExitStopLoss: 1, ExitTimeStop: 1}, m.ExitReasons)
	assert.Equal(t, 4, m.TradingDays)
	assert.Equal(t, baseDate, m.StartDate)
	assert.Greater(t, m.CalmarRatio, 0.0)
}

func TestCalculateMetricsNilResult(t *testing.T) {
	m := CalculateMetrics(nil, 0)
	assert.Zero(t, m.TotalTrades)
	assert.NotNil(t, m.ExitReasons)
}

func TestResultStats(t *testing.T) {
	t.Run("losses count zero pnl", func(t *testing.T) {
		r := newResult("X", 1000, []Trade{{Status: TradeClosed, PnL: 0}}, curveFrom(1000))
		assert.Equal(t, 1, r.LosingTrades)
		assert.Equal(t, 0.0, r.ProfitFactor)
	})
	t.Run("no losses is infinite profit factor", func(t *testing.T) {
		r := newResult("X", 1000, []Trade{{Status: TradeClosed, PnL: 5}}, curveFrom(1000, 1005))
		assert.True(t, math.IsInf(r.ProfitFactor, 1))
		assert.Equal(t, 1005.0, r.FinalEquity)
	})
	t.Run("open trades are not counted", func(t *testing.T) {
		r := newResult("X", 1000, []Trade{{Status: TradeOpen, PnL: 5}}, nil)
		assert.Zero(t, r.TotalTrades)
		assert.Equal(t, 1000.0, r.FinalEquity)
		assert.Empty(t, r.ClosedTrades())
	})
}

func TestResultMarshalJSONCapsProfitFactor(t *testing.T) {
	r := newResult("X", 1000, []Trade{{Status: TradeClosed, PnL: 5}}, curveFrom(1000, 1005))
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, MaxReportedProfitFactor, decoded["profit_factor"])

	m := CalculateMetrics(r, 0)
	out, err := m.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"profit_factor":999`)
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, calculateSharpeRatio(nil, 0))
	assert.Equal(t, 0.0, calculateSharpeRatio([]float64{0.25, 0.25, 0.25}, 0))

	returns := []float64{0.01, -0.005, 0.02, 0.0}
	want := average(returns) / stddev(returns) * math.Sqrt(TradingDaysPerYear)
	assert.InDelta(t, want, calculateSharpeRatio(returns, 0), 1e-12)
	assert.Less(t, calculateSharpeRatio(returns, 0.05), calculateSharpeRatio(returns, 0))
}

func TestSortinoUsesDownsideOnly(t *testing.T) {
	assert.Equal(t, 0.0, calculateSortinoRatio([]float64{0.01, 0.02}, 0))
	assert.Greater(t, calculateSortinoRatio([]float64{0.03, -0.01, 0.02, -0.02}, 0), 0.0)
}

func TestCalculateCAGR(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 365)
	assert.InDelta(t, 0.10, calculateCAGR(1000, 1100, start, end), 1e-9)
	assert.Equal(t, 0.0, calculateCAGR(1000, 1100, start, start))
	assert.Equal(t, 0.0, calculateCAGR(0, 1100, start, end))
}

func TestCalculateVaR(t *testing.T) {
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = float64(i-50) / 1000
	}
	assert.InDelta(t, -0.045, calculateVaR(returns, 0.95), 1e-12)
	assert.InDelta(t, -0.049, calculateVaR(returns, 0.99), 1e-12)
	assert.Equal(t, 0.0, calculateVaR(nil, 0.95))
}

func TestEquityCurveExports(t *testing.T) {
	curve := curveFrom(1000, 900, 950)
	assert.Equal(t, []float64{1000, 900, 950}, curve.Values())
	assert.InDelta(t, -0.1, curve.GetReturns()[0], 1e-12)
	assert.InDelta(t, 0.1, curve.MaxDrawdown(), 1e-12)
	assert.Greater(t, curve.GetVolatility(), 0.0)
	assert.InDelta(t, 0.1, curve.GetDownsideDeviation(), 1e-12)

	csv := curve.ToCSV()
	assert.Contains(t, csv, "date,equity,drawdown,daily_pnl\n")
	assert.Contains(t, csv, "2024-01-03,900.000000,0.100000,")

	out, err := curve.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"value":950`)
}

func TestHashParametersStable(t *testing.T) {
	a := HashParameters(map[string]interface{}{"ticker": "AAPL", "capital": 10000})
	b := HashParameters(map[string]interface{}{"capital": 10000, "ticker": "AAPL"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
