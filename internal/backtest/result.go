package backtest

import (
	"encoding/json"
	"math"
	"time"
)

// Result is the outcome of one ticker run
type Result struct {
	Ticker         string      `json:"ticker"`
	InitialCapital float64     `json:"initial_capital"`
	Trades         []Trade     `json:"trades"`
	EquityCurve    EquityCurve `json:"equity_curve"`

	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRate          float64 `json:"win_rate"`
	ProfitFactor     float64 `json:"profit_factor"`
	GrossProfit      float64 `json:"gross_profit"`
	GrossLoss        float64 `json:"gross_loss"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	FinalEquity      float64 `json:"final_equity"`
	TotalReturn      float64 `json:"total_return"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	AnnualizedReturn float64 `json:"annualized_return"`
}

func newResult(ticker string, initialCapital float64, trades []Trade, curve EquityCurve) *Result {
	r := &Result{
		Ticker:         ticker,
		InitialCapital: initialCapital,
		Trades:         trades,
		EquityCurve:    curve,
		FinalEquity:    initialCapital,
	}
	r.calculateStats()
	return r
}

// calculateStats derives aggregates from closed trades and the equity curve.
// A trade with P&L <= 0 counts as a loss.
func (r *Result) calculateStats() {
	for _, t := range r.Trades {
		if t.Status != TradeClosed {
			continue
		}
		r.TotalTrades++
		if t.PnL > 0 {
			r.WinningTrades++
			r.GrossProfit += t.PnL
		} else {
			r.LosingTrades++
			r.GrossLoss += math.Abs(t.PnL)
		}
	}

	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades)
	}
	r.ProfitFactor = profitFactor(r.GrossProfit, r.GrossLoss)

	if len(r.EquityCurve) == 0 {
		return
	}
	r.FinalEquity = r.EquityCurve[len(r.EquityCurve)-1].Value
	r.MaxDrawdown = r.EquityCurve.MaxDrawdown()
	if r.InitialCapital > 0 {
		r.TotalReturn = (r.FinalEquity - r.InitialCapital) / r.InitialCapital
	}
	r.SharpeRatio = calculateSharpeRatio(r.EquityCurve.GetReturns(), 0)
	r.AnnualizedReturn = annualizedReturn(r.InitialCapital, r.FinalEquity, len(r.EquityCurve))
}

// ClosedTrades returns trades in the CLOSED state
func (r *Result) ClosedTrades() []Trade {
	out := make([]Trade, 0, len(r.Trades))
	for _, t := range r.Trades {
		if t.Status == TradeClosed {
			out = append(out, t)
		}
	}
	return out
}

// Period returns the first and last equity dates
func (r *Result) Period() (time.Time, time.Time) {
	if len(r.EquityCurve) == 0 {
		return time.Time{}, time.Time{}
	}
	return r.EquityCurve[0].Time, r.EquityCurve[len(r.EquityCurve)-1].Time
}

// profitFactor is gross profit over gross loss; +Inf with profits and no losses
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss > 0 {
		return grossProfit / grossLoss
	}
	if grossProfit > 0 {
		return math.Inf(1)
	}
	return 0
}

// annualizedReturn compounds the total return over bars/252 years
func annualizedReturn(initial, final float64, bars int) float64 {
	if initial <= 0 || final <= 0 || bars < 2 {
		return 0
	}
	years := float64(bars) / TradingDaysPerYear
	return math.Pow(final/initial, 1/years) - 1
}

// MaxReportedProfitFactor replaces an infinite profit factor in serialised output
const MaxReportedProfitFactor = 999.0

// MarshalJSON caps an infinite profit factor, which JSON cannot represent
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	a := alias(r)
	a.ProfitFactor = reportableProfitFactor(a.ProfitFactor)
	return json.Marshal(a)
}

func reportableProfitFactor(pf float64) float64 {
	if math.IsInf(pf, 1) {
		return MaxReportedProfitFactor
	}
	return pf
}
