package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/wealth-ops/internal/models"
)

// Phase is the per-run position state
type Phase string

// Run phases
const (
	PhaseFlat    Phase = "FLAT"
	PhasePending Phase = "PENDING"
	PhaseOpen    Phase = "OPEN"
)

// runState is the mutable state of one ticker run. Each Run call owns a fresh one.
type runState struct {
	capital     float64
	peak        float64
	pending     *PendingOrder
	open        *Trade
	stopSet     bool
	highestHigh float64
	trades      []Trade
	equity      EquityCurve
}

func newRunState(initialCapital float64, bars int) *runState {
	return &runState{
		capital: initialCapital,
		trades:  []Trade{},
		equity:  make(EquityCurve, 0, bars),
	}
}

func (s *runState) phase() Phase {
	switch {
	case s.open != nil:
		return PhaseOpen
	case s.pending != nil:
		return PhasePending
	default:
		return PhaseFlat
	}
}

// ratchetStop raises the stop to the chandelier level; it never lowers it
func (s *runState) ratchetStop(atr float64) error {
	t := s.open
	if !s.stopSet || math.IsNaN(t.StopLoss) {
		return fmt.Errorf("%w: open %s position entered %s has no stop-loss",
			models.ErrInvariantViolation, t.Ticker, t.EntryDate.Format("2006-01-02"))
	}
	chandelier := s.highestHigh - ChandelierATR*atr
	if !math.IsNaN(chandelier) && chandelier > t.StopLoss {
		t.StopLoss = chandelier
	}
	return nil
}

func (s *runState) closeTrade(date time.Time, price float64, reason ExitReason) Trade {
	t := s.open
	t.Close(date, price, reason)
	s.capital += t.PnL
	s.trades = append(s.trades, *t)
	s.open = nil
	s.stopSet = false
	s.highestHigh = 0
	return *t
}

// recordEquity marks the account to market at close and tracks drawdown from the running peak
func (s *runState) recordEquity(date time.Time, close float64) {
	value := s.capital
	if s.open != nil {
		value += s.open.Unrealized(close)
	}

	dailyPnL := 0.0
	if n := len(s.equity); n > 0 {
		dailyPnL = value - s.equity[n-1].Value
	}
	if len(s.equity) == 0 || value > s.peak {
		s.peak = value
	}
	drawdown := 0.0
	if s.peak > 0 && value < s.peak {
		drawdown = (s.peak - value) / s.peak
	}

	s.equity = append(s.equity, EquityPoint{
		Time:     date,
		Value:    value,
		Drawdown: drawdown,
		DailyPnL: dailyPnL,
	})
}
