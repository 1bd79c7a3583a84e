package backtest

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wealth-ops/internal/models"
)

func openState(stop float64) *runState {
	st := newRunState(10000, 0)
	st.open = &Trade{Ticker: "AAPL", EntryDate: baseDate, EntryPrice: 100, Size: 10, StopLoss: stop, Status: TradeOpen}
	st.stopSet = true
	st.highestHigh = 100
	return st
}

func TestRunStatePhases(t *testing.T) {
	st := newRunState(10000, 0)
	assert.Equal(t, PhaseFlat, st.phase())

	st.pending = &PendingOrder{BuyStop: 1, Limit: 2}
	assert.Equal(t, PhasePending, st.phase())

	st.pending = nil
	st.open = &Trade{}
	assert.Equal(t, PhaseOpen, st.phase())
}

func TestRatchetStopMissingStopIsInvariantViolation(t *testing.T) {
	st := openState(96)
	st.stopSet = false

	err := st.ratchetStop(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvariantViolation))

	st = openState(math.NaN())
	assert.ErrorIs(t, st.ratchetStop(2), models.ErrInvariantViolation)
}

func TestRatchetStopIgnoresUndefinedATR(t *testing.T) {
	st := openState(96)
	require.NoError(t, st.ratchetStop(math.NaN()))
	assert.Equal(t, 96.0, st.open.StopLoss)
}

func TestChandelierStopNeverDecreases(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	st := openState(95)
	prev := st.open.StopLoss

	for i := 0; i < 500; i++ {
		high := 100 + rng.NormFloat64()*5
		if high > st.highestHigh {
			st.highestHigh = high
		}
		atr := 0.5 + rng.Float64()*4
		require.NoError(t, st.ratchetStop(atr))
		assert.GreaterOrEqual(t, st.open.StopLoss, prev)
		prev = st.open.StopLoss
	}
}

func TestCloseTradeUpdatesCapital(t *testing.T) {
	st := openState(95)
	st.open.Commission = 1

	closed := st.closeTrade(baseDate.AddDate(0, 0, 3), 110, ExitTakeProfit)
	assert.Equal(t, 99.0, closed.PnL)
	assert.Equal(t, 10099.0, st.capital)
	assert.Nil(t, st.open)
	assert.False(t, st.stopSet)
	assert.Len(t, st.trades, 1)
}

func TestRecordEquityDrawdown(t *testing.T) {
	st := newRunState(1000, 3)
	st.recordEquity(baseDate, 0)
	st.capital = 1200
	st.recordEquity(baseDate.AddDate(0, 0, 1), 0)
	st.capital = 900
	st.recordEquity(baseDate.AddDate(0, 0, 2), 0)

	require.Len(t, st.equity, 3)
	assert.Equal(t, 0.0, st.equity[0].Drawdown)
	assert.Equal(t, 0.0, st.equity[1].Drawdown)
	assert.InDelta(t, 0.25, st.equity[2].Drawdown, 1e-12)
	assert.Equal(t, -300.0, st.equity[2].DailyPnL)
	assert.InDelta(t, 0.25, st.equity.MaxDrawdown(), 1e-12)
}

func TestTradeShortUnrealized(t *testing.T) {
	trade := Trade{Direction: Short, EntryPrice: 100, Size: 2}
	assert.Equal(t, 10.0, trade.Unrealized(95))

	trade.Close(baseDate, 95, ExitTakeProfit)
	assert.Equal(t, 10.0, trade.PnL)
	assert.InDelta(t, 0.05, trade.PnLPercent, 1e-12)
	assert.Equal(t, TradeClosed, trade.Status)
}
