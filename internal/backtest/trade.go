package backtest

import "time"

// Direction of a trade
type Direction string

// Trade directions
const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// TradeStatus is the trade lifecycle state
type TradeStatus string

// Trade statuses
const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// ExitReason records why a trade was closed
type ExitReason string

// Exit reasons
const (
	ExitNone       ExitReason = ""
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitTimeStop   ExitReason = "TIME_STOP"
)

// Trade is one simulated position
type Trade struct {
	Ticker      string      `json:"ticker"`
	Direction   Direction   `json:"direction"`
	Status      TradeStatus `json:"status"`
	EntryDate   time.Time   `json:"entry_date"`
	EntryPrice  float64     `json:"entry_price"`
	Size        float64     `json:"size"`
	StopLoss    float64     `json:"stop_loss"`
	TakeProfit  float64     `json:"take_profit"`
	DaysHeld    int         `json:"days_held"`
	Commission  float64     `json:"commission"`
	FundingFees float64     `json:"funding_fees"`
	ExitDate    time.Time   `json:"exit_date,omitempty"`
	ExitPrice   float64     `json:"exit_price,omitempty"`
	ExitReason  ExitReason  `json:"exit_reason,omitempty"`
	PnL         float64     `json:"pnl"`
	PnLPercent  float64     `json:"pnl_pct"`
}

// CostBasis is entry price times size
func (t *Trade) CostBasis() float64 {
	return t.EntryPrice * t.Size
}

// Unrealized is the mark-to-market P&L at price, before costs
func (t *Trade) Unrealized(price float64) float64 {
	if t.Direction == Short {
		return (t.EntryPrice - price) * t.Size
	}
	return (price - t.EntryPrice) * t.Size
}

// Close marks the trade closed and realises P&L net of commission and funding
func (t *Trade) Close(date time.Time, price float64, reason ExitReason) {
	t.ExitDate = date
	t.ExitPrice = price
	t.ExitReason = reason
	t.Status = TradeClosed

	if t.EntryPrice <= 0 {
		return
	}
	t.PnL = t.Unrealized(price) - t.Commission - t.FundingFees
	if basis := t.CostBasis(); basis > 0 {
		t.PnLPercent = t.PnL / basis
	}
}
