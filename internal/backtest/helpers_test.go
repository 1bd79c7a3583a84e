package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/wealth-ops/internal/models"
)

// testBar is one row of an enriched frame
type testBar struct {
	open, high, low, close float64
	atr, adx, signal       float64
}

var baseDate = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func buildFrame(t *testing.T, bars []testBar, withSignal bool) *models.Frame {
	t.Helper()
	dates := make([]time.Time, len(bars))
	cols := map[string][]float64{}
	names := []string{models.ColOpen, models.ColHigh, models.ColLow, models.ColClose, models.ColVolume, models.ColATR14, models.ColADX14}
	if withSignal {
		names = append(names, models.ColCompositeSignal)
	}
	for _, name := range names {
		cols[name] = make([]float64, len(bars))
	}
	for i, b := range bars {
		dates[i] = baseDate.AddDate(0, 0, i)
		cols[models.ColOpen][i] = b.open
		cols[models.ColHigh][i] = b.high
		cols[models.ColLow][i] = b.low
		cols[models.ColClose][i] = b.close
		cols[models.ColVolume][i] = 1_000_000
		cols[models.ColATR14][i] = b.atr
		cols[models.ColADX14][i] = b.adx
		if withSignal {
			cols[models.ColCompositeSignal][i] = b.signal
		}
	}
	frame, err := models.NewFrame(dates)
	require.NoError(t, err)
	for _, name := range names {
		require.NoError(t, frame.Set(name, cols[name]))
	}
	return frame
}

// quietBar trades in a narrow band that never touches the entry stop or take-profit
func quietBar() testBar {
	return testBar{open: 100.2, high: 101, low: 99.5, close: 100.5, atr: 2, adx: 25}
}

// signalThenFill is a signal bar followed by a bar that fills the trap at 100.04
func signalThenFill() []testBar {
	return []testBar{
		{open: 99, high: 100, low: 98, close: 99.5, atr: 2, adx: 25, signal: 1},
		{open: 100, high: 101, low: 99.5, close: 100.5, atr: 2, adx: 25},
	}
}

// syntheticFrame generates a deterministic trending series of business days
// with buy signals every 40 bars
func syntheticFrame(t *testing.T, start time.Time, years int) *models.Frame {
	t.Helper()
	end := start.AddDate(years, 0, 0)
	var dates []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	n := len(dates)
	cols := map[string][]float64{}
	for _, name := range []string{models.ColOpen, models.ColHigh, models.ColLow, models.ColClose, models.ColVolume, models.ColATR14, models.ColADX14, models.ColCompositeSignal} {
		cols[name] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		mid := 100 + 0.02*float64(i) + 5*math.Sin(float64(i)/15)
		cols[models.ColOpen][i] = mid - 0.2
		cols[models.ColHigh][i] = mid + 1
		cols[models.ColLow][i] = mid - 1
		cols[models.ColClose][i] = mid + 0.3
		cols[models.ColVolume][i] = 500_000
		cols[models.ColATR14][i] = 1.5
		cols[models.ColADX14][i] = 28
		if i%40 == 0 {
			cols[models.ColCompositeSignal][i] = 1
		}
	}
	frame, err := models.NewFrame(dates)
	require.NoError(t, err)
	for name, values := range cols {
		require.NoError(t, frame.Set(name, values))
	}
	return frame
}
