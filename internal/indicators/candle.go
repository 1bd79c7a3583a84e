package indicators

import "math"

// UpperWickRatio is (high - max(open, close)) / (high - low), clamped to [0, 1].
// Doji bars (high == low) yield 0.
func UpperWickRatio(open, high, low, close []float64) ([]float64, error) {
	if err := checkSeries("upper_wick", open, high, low, close); err != nil {
		return nil, err
	}
	out := make([]float64, len(open))
	for i := range open {
		out[i] = wickRatio(high[i]-math.Max(open[i], close[i]), high[i]-low[i])
	}
	return out, nil
}

// LowerWickRatio is (min(open, close) - low) / (high - low), clamped to [0, 1].
// Doji bars (high == low) yield 0.
func LowerWickRatio(open, high, low, close []float64) ([]float64, error) {
	if err := checkSeries("lower_wick", open, high, low, close); err != nil {
		return nil, err
	}
	out := make([]float64, len(open))
	for i := range open {
		out[i] = wickRatio(math.Min(open[i], close[i])-low[i], high[i]-low[i])
	}
	return out, nil
}

func wickRatio(wick, candleRange float64) float64 {
	if !(candleRange > 0) {
		return 0
	}
	return clamp(wick/candleRange, 0, 1)
}
