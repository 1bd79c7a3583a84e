package signals

import (
	"math"

	"github.com/yourusername/wealth-ops/internal/indicators"
)

// Component lookbacks
const (
	MomentumLookback = 252
	MomentumSkip     = 21
	TrendSMAPeriod   = 200
	SRPeriod         = 20
	ZScoreWindow     = 252
)

// MinBars is the shortest history the composite accepts
const MinBars = MomentumLookback + MomentumSkip

// MomentumScore averages the 12- and 6-month returns measured up to 21 bars ago
func MomentumScore(close []float64) ([]float64, error) {
	lagged := indicators.Shift(close, MomentumSkip)
	ret12, err := indicators.PctChange(lagged, MomentumLookback)
	if err != nil {
		return nil, err
	}
	ret6, err := indicators.PctChange(lagged, MomentumLookback/2)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(close))
	for i := range out {
		out[i] = (ret12[i] + ret6[i]) / 2
	}
	return out, nil
}

// TrendScore is close / SMA200 - 1; NaN where the average is not positive
func TrendScore(close []float64) ([]float64, error) {
	sma, err := indicators.SMA(close, TrendSMAPeriod)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(close))
	for i := range out {
		if !(sma[i] > 0) {
			out[i] = math.NaN()
			continue
		}
		out[i] = close[i]/sma[i] - 1
	}
	return out, nil
}

// RSIScore peaks at RSI 50 and falls off linearly towards the extremes
func RSIScore(rsi []float64) []float64 {
	out := make([]float64, len(rsi))
	for i, v := range rsi {
		out[i] = 50 - math.Abs(v-50)
	}
	return out
}

// VolumeScore centres the volume ratio on zero
func VolumeScore(volumeRatio []float64) []float64 {
	out := make([]float64, len(volumeRatio))
	for i, v := range volumeRatio {
		out[i] = v - 1
	}
	return out
}

// VolatilityScore is -ATR/close, so calmer bars score higher. NaN where close is not positive.
func VolatilityScore(atr, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		if !(close[i] > 0) {
			out[i] = math.NaN()
			continue
		}
		out[i] = -atr[i] / close[i]
	}
	return out
}

// SupportResistanceScore is 1 minus the position of close in the 20-bar
// channel, so bars near support score higher
func SupportResistanceScore(close, high, low []float64) ([]float64, error) {
	pos, err := indicators.RangePosition(close, high, low, SRPeriod)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(pos))
	for i, p := range pos {
		out[i] = 1 - p
	}
	return out, nil
}
