package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BacktestRun represents a persisted backtest run
type BacktestRun struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Ticker         string          `db:"ticker" json:"ticker"`
	Mode           string          `db:"mode" json:"mode"`
	RunDate        time.Time       `db:"run_date" json:"run_date"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	InitialCapital decimal.Decimal `db:"initial_capital" json:"initial_capital"`
	FinalEquity    decimal.Decimal `db:"final_equity" json:"final_equity"`
	TotalReturn    float64         `db:"total_return" json:"total_return"`
	SharpeRatio    float64         `db:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown    float64         `db:"max_drawdown" json:"max_drawdown"`
	TotalTrades    int             `db:"total_trades" json:"total_trades"`
	WinRate        float64         `db:"win_rate" json:"win_rate"`
	ProfitFactor   float64         `db:"profit_factor" json:"profit_factor"`
	CompositeScore float64         `db:"composite_score" json:"composite_score"`
	Recommendation string          `db:"recommendation" json:"recommendation"`
	Parameters     json.RawMessage `db:"parameters" json:"parameters"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// TradeRecord is one closed trade belonging to a BacktestRun
type TradeRecord struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	RunID       uuid.UUID       `db:"run_id" json:"run_id"`
	Ticker      string          `db:"ticker" json:"ticker"`
	Direction   string          `db:"direction" json:"direction"`
	EntryDate   time.Time       `db:"entry_date" json:"entry_date"`
	EntryPrice  decimal.Decimal `db:"entry_price" json:"entry_price"`
	ExitDate    time.Time       `db:"exit_date" json:"exit_date"`
	ExitPrice   decimal.Decimal `db:"exit_price" json:"exit_price"`
	ExitReason  string          `db:"exit_reason" json:"exit_reason"`
	Size        decimal.Decimal `db:"size" json:"size"`
	StopLoss    decimal.Decimal `db:"stop_loss" json:"stop_loss"`
	TakeProfit  decimal.Decimal `db:"take_profit" json:"take_profit"`
	Commission  decimal.Decimal `db:"commission" json:"commission"`
	FundingFees decimal.Decimal `db:"funding_fees" json:"funding_fees"`
	PnL         decimal.Decimal `db:"pnl" json:"pnl"`
	PnLPercent  float64         `db:"pnl_percent" json:"pnl_percent"`
	DaysHeld    int             `db:"days_held" json:"days_held"`
}
