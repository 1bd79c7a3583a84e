package backtest

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wealth-ops/internal/models"
)

func newEquityEngine(capital float64) *Engine {
	return NewEngine(capital, models.EquityProfile, nil)
}

func timeStopBars() []testBar {
	bars := signalThenFill()
	for i := 0; i < 10; i++ {
		bars = append(bars, quietBar())
	}
	return bars
}

func TestEngineTimeStop(t *testing.T) {
	frame := buildFrame(t, timeStopBars(), true)

	result, err := newEquityEngine(10000).Run("AAPL", frame)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.Equal(t, TradeClosed, trade.Status)
	assert.Equal(t, ExitTimeStop, trade.ExitReason)
	assert.Equal(t, 10, trade.DaysHeld)
	assert.Equal(t, frame.Date(11), trade.ExitDate)
	assert.Equal(t, 100.5, trade.ExitPrice)

	assert.InDelta(t, 100.04, trade.EntryPrice, 1e-9)
	assert.Equal(t, 14.0, trade.Size)
	assert.Equal(t, 1.0, trade.Commission)
	assert.InDelta(t, (100.5-100.04)*14-1, trade.PnL, 1e-9)
	assert.InDelta(t, 100.04+(2+25.0/30)*2, trade.TakeProfit, 1e-9)
	assert.Equal(t, 97.0, trade.StopLoss)

	assert.Len(t, result.EquityCurve, len(timeStopBars()))
	assert.InDelta(t, 10000+trade.PnL, result.FinalEquity, 1e-9)
}

func TestEnginePositionSizing(t *testing.T) {
	tests := []struct {
		name     string
		capital  float64
		profile  models.AssetProfile
		wantSize float64
	}{
		// risk size 10000*0.02/4 = 50, cap size 1500/100.04 = 14.99
		{"equity floors to whole shares", 10000, models.EquityProfile, 14},
		{"commodity stays fractional", 10000, models.CommodityHavenProfile, 1500 / 100.04},
		// cap size 45/100.04 is under one share
		{"equity below one share opens nothing", 300, models.EquityProfile, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(tt.capital, tt.profile, nil)
			result, err := engine.Run("TEST", buildFrame(t, timeStopBars(), true))
			require.NoError(t, err)
			if tt.wantSize == 0 {
				assert.Empty(t, result.Trades)
				assert.Equal(t, tt.capital, result.FinalEquity)
				return
			}
			require.Len(t, result.Trades, 1)
			assert.InDelta(t, tt.wantSize, result.Trades[0].Size, 1e-9)
		})
	}
}

func TestEngineStopLossGap(t *testing.T) {
	bars := append(signalThenFill(), testBar{open: 90, high: 91, low: 89, close: 90.5, atr: 2, adx: 25})
	result, err := newEquityEngine(10000).Run("AAPL", buildFrame(t, bars, true))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.Equal(t, ExitStopLoss, trade.ExitReason)
	assert.Equal(t, 90.0, trade.ExitPrice)
	assert.InDelta(t, (90-100.04)*14-1, trade.PnL, 1e-9)
	assert.Equal(t, 1, result.LosingTrades)
	assert.Equal(t, 0.0, result.ProfitFactor)
	assert.Greater(t, result.MaxDrawdown, 0.0)
}

func TestEngineStopLossIntraday(t *testing.T) {
	bars := append(signalThenFill(), testBar{open: 99, high: 99.5, low: 96, close: 96.5, atr: 2, adx: 25})
	result, err := newEquityEngine(10000).Run("AAPL", buildFrame(t, bars, true))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	// chandelier 101 - 2*2 ratchets the stop from 96.04 to 97 before the exit check
	assert.Equal(t, ExitStopLoss, result.Trades[0].ExitReason)
	assert.Equal(t, 97.0, result.Trades[0].ExitPrice)
}

func TestEngineTakeProfit(t *testing.T) {
	target := 100.04 + (2+25.0/30)*2

	tests := []struct {
		name     string
		bar      testBar
		wantExit float64
	}{
		{"intraday", testBar{open: 101, high: 106, low: 104, close: 105.5, atr: 2, adx: 25}, target},
		{"gap above target", testBar{open: 108, high: 109, low: 107.5, close: 108.5, atr: 2, adx: 25}, 108},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := append(signalThenFill(), tt.bar)
			result, err := newEquityEngine(10000).Run("AAPL", buildFrame(t, bars, true))
			require.NoError(t, err)
			require.Len(t, result.Trades, 1)
			assert.Equal(t, ExitTakeProfit, result.Trades[0].ExitReason)
			assert.InDelta(t, tt.wantExit, result.Trades[0].ExitPrice, 1e-9)
			assert.True(t, math.IsInf(result.ProfitFactor, 1))
			assert.Equal(t, 1.0, result.WinRate)
		})
	}
}

func TestEngineSameBarRatchetBeatsTarget(t *testing.T) {
	// high 107 lifts the stop to 103 before exits are checked; low 100.5 breaches it
	bars := append(signalThenFill(), testBar{open: 101, high: 107, low: 100.5, close: 106, atr: 2, adx: 25})
	result, err := newEquityEngine(10000).Run("AAPL", buildFrame(t, bars, true))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.Equal(t, ExitStopLoss, trade.ExitReason)
	assert.Equal(t, 101.0, trade.ExitPrice)
	assert.Equal(t, 103.0, trade.StopLoss)
}

func TestEngineStopTakesPriorityOverTarget(t *testing.T) {
	bars := append(signalThenFill(), testBar{open: 100.5, high: 106, low: 90, close: 100, atr: 2, adx: 25})
	result, err := newEquityEngine(10000).Run("AAPL", buildFrame(t, bars, true))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	// the bar's own high lifts the stop to 102, above the open
	assert.Equal(t, ExitStopLoss, result.Trades[0].ExitReason)
	assert.Equal(t, 100.5, result.Trades[0].ExitPrice)
}

func TestEngineCommodityFunding(t *testing.T) {
	engine := NewEngine(10000, models.CommodityHavenProfile, nil)
	result, err := engine.Run("GLD", buildFrame(t, timeStopBars(), true))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	size := 1500 / 100.04
	assert.Equal(t, 0.0, trade.Commission)
	// one night of funding per held bar, exit bar included
	assert.InDelta(t, 10*100.04*size*CommodityFundingRate, trade.FundingFees, 1e-9)
	assert.InDelta(t, (100.5-100.04)*size-trade.FundingFees, trade.PnL, 1e-9)
}

func TestEngineIndexPaysNoCosts(t *testing.T) {
	engine := NewEngine(10000, models.IndexProfile, nil)
	result, err := engine.Run("SPY", buildFrame(t, timeStopBars(), true))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Zero(t, result.Trades[0].Commission)
	assert.Zero(t, result.Trades[0].FundingFees)
}

func TestEngineEntryGates(t *testing.T) {
	tests := []struct {
		name string
		bars []testBar
	}{
		{"adx at threshold", []testBar{
			{open: 99, high: 100, low: 98, close: 99.5, atr: 2, adx: 20, signal: 1},
			quietBar(),
		}},
		{"gap through limit", []testBar{
			{open: 99, high: 100, low: 98, close: 99.5, atr: 2, adx: 25, signal: 1},
			{open: 100.5, high: 103, low: 100.3, close: 102, atr: 2, adx: 25},
		}},
		{"high below buy-stop", []testBar{
			{open: 99, high: 100, low: 98, close: 99.5, atr: 2, adx: 25, signal: 1},
			{open: 99, high: 100.03, low: 98.5, close: 99.8, atr: 2, adx: 25},
		}},
		{"sell signal", []testBar{
			{open: 99, high: 100, low: 98, close: 99.5, atr: 2, adx: 25, signal: -1},
			quietBar(),
		}},
		{"order expires after one bar", []testBar{
			{open: 99, high: 100, low: 98, close: 99.5, atr: 2, adx: 25, signal: 1},
			{open: 99, high: 99.5, low: 98.5, close: 99.2, atr: 2, adx: 25},
			{open: 100, high: 101, low: 99.5, close: 100.5, atr: 2, adx: 25},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newEquityEngine(10000).Run("AAPL", buildFrame(t, tt.bars, true))
			require.NoError(t, err)
			assert.Empty(t, result.Trades)
			assert.Equal(t, 10000.0, result.FinalEquity)
		})
	}
}

func TestEngineOpenTradeAtEndStaysOpen(t *testing.T) {
	bars := append(signalThenFill(), quietBar(), quietBar())
	result, err := newEquityEngine(10000).Run("AAPL", buildFrame(t, bars, true))
	require.NoError(t, err)
	require.Len(t, result.Trades, 0)
	assert.Equal(t, 0, result.TotalTrades)
	// equity is marked to market on the open position
	assert.InDelta(t, 10000+(100.5-100.04)*14, result.FinalEquity, 1e-9)
}

func TestEngineMissingSignalColumn(t *testing.T) {
	result, err := newEquityEngine(10000).Run("AAPL", buildFrame(t, timeStopBars(), false))
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Len(t, result.EquityCurve, len(timeStopBars()))
	assert.Equal(t, 10000.0, result.FinalEquity)
	assert.Equal(t, 0.0, result.TotalReturn)
}

func TestEngineEmptyFrame(t *testing.T) {
	result, err := newEquityEngine(2500).Run("AAPL", buildFrame(t, nil, true))
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Empty(t, result.EquityCurve)
	assert.Equal(t, 2500.0, result.FinalEquity)
}

func TestEngineMissingColumns(t *testing.T) {
	frame := buildFrame(t, timeStopBars(), true)
	dates := frame.Dates()
	stripped, err := models.NewFrame(dates)
	require.NoError(t, err)
	for _, name := range []string{models.ColOpen, models.ColHigh, models.ColLow, models.ColClose} {
		values, _ := frame.Column(name)
		require.NoError(t, stripped.Set(name, values))
	}

	_, err = newEquityEngine(10000).Run("AAPL", stripped)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMissingColumns))
	var mce *models.MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.ElementsMatch(t, []string{models.ColATR14, models.ColADX14}, mce.Columns)

	_, err = newEquityEngine(10000).Run("AAPL", nil)
	assert.Error(t, err)
}

func TestEngineDefaultCapital(t *testing.T) {
	engine := NewEngine(0, models.EquityProfile, nil)
	assert.Equal(t, DefaultInitialCapital, engine.InitialCapital())
	assert.Equal(t, models.AssetClassEquity, engine.Profile().AssetClass)
}

func TestEngineRunsAreIndependent(t *testing.T) {
	engine := newEquityEngine(10000)
	frame := syntheticFrame(t, baseDate, 2)

	first, err := engine.Run("AAPL", frame)
	require.NoError(t, err)
	second, err := engine.Run("AAPL", frame)
	require.NoError(t, err)

	assert.Equal(t, first.Trades, second.Trades)
	assert.Equal(t, first.EquityCurve, second.EquityCurve)
	assert.Greater(t, first.TotalTrades, 0)
}

func TestEngineSignalColumnUnchanged(t *testing.T) {
	frame := buildFrame(t, timeStopBars(), true)
	before := frame.Clone()

	_, err := newEquityEngine(10000).Run("AAPL", frame)
	require.NoError(t, err)

	for _, name := range before.Columns() {
		want, _ := before.Column(name)
		got, _ := frame.Column(name)
		assert.Equal(t, want, got, name)
	}
}

func TestTakeProfitMultiple(t *testing.T) {
	assert.Equal(t, MinTakeProfitATR, takeProfitMultiple(0))
	assert.InDelta(t, 3.0, takeProfitMultiple(30), 1e-12)
	assert.Equal(t, MaxTakeProfitATR, takeProfitMultiple(90))
	assert.Equal(t, MaxTakeProfitATR, takeProfitMultiple(math.NaN()))
}
