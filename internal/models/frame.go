package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Standard column names shared by the feature, signal and backtest layers
const (
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"

	ColRSI14       = "rsi_14"
	ColEMA8        = "ema_8"
	ColEMA20       = "ema_20"
	ColEMA50       = "ema_50"
	ColMACDHist    = "macd_hist"
	ColADX14       = "adx_14"
	ColATR14       = "atr_14"
	ColUpperWick   = "upper_wick"
	ColLowerWick   = "lower_wick"
	ColEMAFan      = "ema_fan"
	ColDistFromLow = "dist_from_low"
	ColOBV         = "obv"
	ColVolumeRatio = "volume_ratio"
	ColRSZScore    = "rs_zscore"

	ColCompositeScore  = "composite_score"
	ColCompositeSignal = "composite_signal"
)

// OHLCVColumns are the raw price columns every input series must carry
var OHLCVColumns = []string{ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// Frame is a date-indexed table of float64 columns. NaN marks an undefined value.
type Frame struct {
	dates   []time.Time
	columns map[string][]float64
	order   []string
}

// NewFrame creates an empty frame over strictly increasing dates
func NewFrame(dates []time.Time) (*Frame, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dates must be strictly increasing: %s follows %s",
				dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
	}
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &Frame{dates: d, columns: make(map[string][]float64)}, nil
}

// FrameFromBars builds an OHLCV frame from price bars sorted by date
func FrameFromBars(bars []PriceBar) (*Frame, error) {
	dates := make([]time.Time, len(bars))
	open := make([]float64, len(bars))
	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	volume := make([]float64, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		volume[i] = b.Volume
	}

	f, err := NewFrame(dates)
	if err != nil {
		return nil, err
	}
	for _, c := range []struct {
		name   string
		values []float64
	}{{ColOpen, open}, {ColHigh, high}, {ColLow, low}, {ColClose, closes}, {ColVolume, volume}} {
		if err := f.Set(c.name, c.values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.dates)
}

// Dates returns the row index. Callers must not modify the slice.
func (f *Frame) Dates() []time.Time {
	return f.dates
}

// Date returns the date of row i
func (f *Frame) Date(i int) time.Time {
	return f.dates[i]
}

// Columns returns column names in insertion order
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Has reports whether every named column is present
func (f *Frame) Has(names ...string) bool {
	return len(f.Missing(names...)) == 0
}

// Missing returns the subset of names not present in the frame
func (f *Frame) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := f.columns[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Column returns the values of a column. Callers must not modify the slice.
func (f *Frame) Column(name string) ([]float64, bool) {
	c, ok := f.columns[name]
	return c, ok
}

// Value returns column[name][i], or NaN when the column is absent
func (f *Frame) Value(name string, i int) float64 {
	c, ok := f.columns[name]
	if !ok {
		return math.NaN()
	}
	return c[i]
}

// Set adds or replaces a column in place. The values are copied.
func (f *Frame) Set(name string, values []float64) error {
	if len(values) != len(f.dates) {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), len(f.dates))
	}
	if _, ok := f.columns[name]; !ok {
		f.order = append(f.order, name)
	}
	v := make([]float64, len(values))
	copy(v, values)
	f.columns[name] = v
	return nil
}

// WithColumn returns a copy of the frame with the column added or replaced
func (f *Frame) WithColumn(name string, values []float64) (*Frame, error) {
	c := f.Clone()
	if err := c.Set(name, values); err != nil {
		return nil, err
	}
	return c, nil
}

// Clone returns a deep copy
func (f *Frame) Clone() *Frame {
	return f.Slice(0, f.Len())
}

// Slice returns a deep copy of rows [start, end)
func (f *Frame) Slice(start, end int) *Frame {
	if start < 0 {
		start = 0
	}
	if end > len(f.dates) {
		end = len(f.dates)
	}
	if end < start {
		end = start
	}
	out := &Frame{
		dates:   append([]time.Time(nil), f.dates[start:end]...),
		columns: make(map[string][]float64, len(f.columns)),
		order:   append([]string(nil), f.order...),
	}
	for name, values := range f.columns {
		out.columns[name] = append([]float64(nil), values[start:end]...)
	}
	return out
}

// SearchDate returns the first row whose date is not before t
func (f *Frame) SearchDate(t time.Time) int {
	return sort.Search(len(f.dates), func(i int) bool {
		return !f.dates[i].Before(t)
	})
}

// Between returns rows with from <= date < to
func (f *Frame) Between(from, to time.Time) *Frame {
	return f.Slice(f.SearchDate(from), f.SearchDate(to))
}

// AlignTo returns the values of column name reindexed onto the given dates.
// Dates absent from the frame yield NaN.
func (f *Frame) AlignTo(name string, dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	src, ok := f.columns[name]
	for i, d := range dates {
		out[i] = math.NaN()
		if !ok {
			continue
		}
		j := f.SearchDate(d)
		if j < len(f.dates) && f.dates[j].Equal(d) {
			out[i] = src[j]
		}
	}
	return out
}
