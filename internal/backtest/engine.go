package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/wealth-ops/internal/models"
)

// Position sizing and exit rules
const (
	RiskPerTrade      = 0.02
	MaxPositionPct    = 0.15
	StopATR           = 2.0
	ChandelierATR     = 2.0
	TimeStopDays      = 10
	ADXEntryThreshold = 20.0
	MinTakeProfitATR  = 2.5
	MaxTakeProfitATR  = 4.5
)

// DefaultInitialCapital is used when no capital is configured
const DefaultInitialCapital = 10000.0

// RequiredColumns are the frame columns the bar loop reads
var RequiredColumns = []string{
	models.ColOpen, models.ColHigh, models.ColLow, models.ColClose,
	models.ColATR14, models.ColADX14,
}

// Engine replays an enriched frame bar by bar for one asset profile
type Engine struct {
	initialCapital float64
	profile        models.AssetProfile
	simulator      *Simulator
	logger         logrus.FieldLogger
}

// NewEngine creates an engine; a non-positive capital falls back to DefaultInitialCapital
func NewEngine(initialCapital float64, profile models.AssetProfile, logger logrus.FieldLogger) *Engine {
	if initialCapital <= 0 {
		initialCapital = DefaultInitialCapital
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Engine{
		initialCapital: initialCapital,
		profile:        profile,
		simulator:      NewSimulator(profile),
		logger:         logger,
	}
}

// Profile returns the asset profile the engine simulates
func (e *Engine) Profile() models.AssetProfile {
	return e.profile
}

// InitialCapital returns the starting capital of every run
func (e *Engine) InitialCapital() float64 {
	return e.initialCapital
}

type bar struct {
	date                   time.Time
	open, high, low, close float64
	atr, adx, signal       float64
}

// Run simulates one ticker over frame and returns its trades, equity curve
// and statistics. Without a composite_signal column no entries are taken.
func (e *Engine) Run(ticker string, frame *models.Frame) (*Result, error) {
	if frame == nil {
		return nil, fmt.Errorf("backtest engine: frame is required")
	}
	if err := models.RequireColumns("backtest engine", frame, RequiredColumns...); err != nil {
		return nil, err
	}

	start := time.Now()
	log := e.logger.WithField("ticker", ticker)
	log.WithFields(logrus.Fields{"bars": frame.Len(), "asset_class": e.profile.AssetClass}).Debug("Starting backtest run")

	col := func(name string) []float64 {
		c, _ := frame.Column(name)
		return c
	}
	opens, highs, lows, closes := col(models.ColOpen), col(models.ColHigh), col(models.ColLow), col(models.ColClose)
	atrs, adxs := col(models.ColATR14), col(models.ColADX14)
	signals, hasSignal := frame.Column(models.ColCompositeSignal)
	if !hasSignal {
		log.Warn("No composite_signal column, entries disabled")
	}

	st := newRunState(e.initialCapital, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		b := bar{
			date: frame.Date(i), open: opens[i], high: highs[i], low: lows[i], close: closes[i],
			atr: atrs[i], adx: adxs[i], signal: math.NaN(),
		}
		if hasSignal {
			b.signal = signals[i]
		}

		switch st.phase() {
		case PhaseOpen:
			if err := e.manageOpen(st, b, log); err != nil {
				return nil, err
			}
		case PhasePending:
			e.tryEntry(st, ticker, b, log)
		}

		if st.open == nil && hasSignal && b.signal == 1 && b.adx > ADXEntryThreshold {
			order := e.simulator.TrapLevels(b.high, b.atr)
			st.pending = &order
		}

		st.recordEquity(b.date, b.close)
	}

	result := newResult(ticker, e.initialCapital, st.trades, st.equity)
	log.WithFields(logrus.Fields{
		"trades":       result.TotalTrades,
		"final_equity": result.FinalEquity,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Backtest run complete")
	return result, nil
}

// manageOpen advances an open trade by one bar: ratchet the stop, accrue
// funding, then test stop-loss, take-profit and time-stop in that order.
func (e *Engine) manageOpen(st *runState, b bar, log logrus.FieldLogger) error {
	t := st.open
	t.DaysHeld++
	if b.high > st.highestHigh {
		st.highestHigh = b.high
	}
	if err := st.ratchetStop(b.atr); err != nil {
		return err
	}

	var (
		exitPrice float64
		reason    = ExitNone
	)
	switch {
	case b.low < t.StopLoss:
		exitPrice, reason = t.StopLoss, ExitStopLoss
		if b.open < t.StopLoss {
			exitPrice = b.open
		}
	case t.TakeProfit > 0 && b.high > t.TakeProfit:
		exitPrice, reason = t.TakeProfit, ExitTakeProfit
		if b.open > t.TakeProfit {
			exitPrice = b.open
		}
	case t.DaysHeld >= TimeStopDays:
		exitPrice, reason = b.close, ExitTimeStop
	}

	if rate := e.simulator.FundingRate(); rate > 0 {
		t.FundingFees += e.simulator.DailyFunding(t.EntryPrice, t.Size)
	}

	if reason == ExitNone {
		return nil
	}
	closed := st.closeTrade(b.date, exitPrice, reason)
	log.WithFields(logrus.Fields{
		"exit_date":   closed.ExitDate.Format("2006-01-02"),
		"exit_price":  closed.ExitPrice,
		"exit_reason": closed.ExitReason,
		"pnl":         closed.PnL,
		"days_held":   closed.DaysHeld,
	}).Debug("Trade closed")
	return nil
}

// tryEntry checks the pending order against this bar. The order is discarded
// whether or not it fills.
func (e *Engine) tryEntry(st *runState, ticker string, b bar, log logrus.FieldLogger) {
	order := *st.pending
	st.pending = nil

	fill, ok := e.simulator.CheckEntry(b.open, b.high, order)
	if !ok {
		return
	}

	size := e.positionSize(st.capital, fill, b.atr)
	if !(size > 0) {
		return
	}

	st.open = &Trade{
		Ticker:     ticker,
		Direction:  Long,
		Status:     TradeOpen,
		EntryDate:  b.date,
		EntryPrice: fill,
		Size:       size,
		StopLoss:   fill - StopATR*b.atr,
		TakeProfit: fill + takeProfitMultiple(b.adx)*b.atr,
		Commission: e.simulator.Commission(size),
	}
	st.stopSet = true
	st.highestHigh = math.Max(fill, b.high)

	log.WithFields(logrus.Fields{
		"entry_date":  b.date.Format("2006-01-02"),
		"entry_price": fill,
		"size":        size,
		"stop_loss":   st.open.StopLoss,
		"take_profit": st.open.TakeProfit,
	}).Debug("Trade opened")
}

// positionSize is the smaller of the risk-based size and the capital cap,
// truncated to whole units for equities
func (e *Engine) positionSize(capital, fill, atr float64) float64 {
	riskSize := 0.0
	if riskPerUnit := StopATR * atr; riskPerUnit > 0 {
		riskSize = capital * RiskPerTrade / riskPerUnit
	}
	capSize := 0.0
	if fill > 0 {
		capSize = capital * MaxPositionPct / fill
	}
	size := math.Min(riskSize, capSize)
	if e.simulator.WholeUnits() {
		size = math.Trunc(size)
	}
	return size
}

// takeProfitMultiple is clamp(2 + ADX/30, 2.5, 4.5)
func takeProfitMultiple(adx float64) float64 {
	m := 2 + adx/30
	if math.IsNaN(m) {
		return MaxTakeProfitATR
	}
	return math.Max(MinTakeProfitATR, math.Min(MaxTakeProfitATR, m))
}
