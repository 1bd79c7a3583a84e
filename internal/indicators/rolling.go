package indicators

import "math"

// SMA is the simple moving average over full windows
func SMA(series []float64, period int) ([]float64, error) {
	if err := checkPeriod("sma", period); err != nil {
		return nil, err
	}
	if err := checkSeries("sma", series); err != nil {
		return nil, err
	}
	return rolling(series, period, mean), nil
}

// RollingMin is the lowest value over each full window
func RollingMin(series []float64, period int) ([]float64, error) {
	if err := checkPeriod("rolling_min", period); err != nil {
		return nil, err
	}
	if err := checkSeries("rolling_min", series); err != nil {
		return nil, err
	}
	return rolling(series, period, minOf), nil
}

// RollingMax is the highest value over each full window
func RollingMax(series []float64, period int) ([]float64, error) {
	if err := checkPeriod("rolling_max", period); err != nil {
		return nil, err
	}
	if err := checkSeries("rolling_max", series); err != nil {
		return nil, err
	}
	return rolling(series, period, maxOf), nil
}

// RollingZScore standardises each value against its trailing window:
// (x - mean) / sample std. The result is NaN during warm-up or when the window
// holds a NaN, and 0 when the window's standard deviation is zero.
func RollingZScore(series []float64, window int) ([]float64, error) {
	if err := checkPeriod("rolling_zscore", window); err != nil {
		return nil, err
	}
	if err := checkSeries("rolling_zscore", series); err != nil {
		return nil, err
	}

	out := make([]float64, len(series))
	for i := range series {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		w := series[i+1-window : i+1]
		if hasNaN(w) {
			out[i] = math.NaN()
			continue
		}
		std := sampleStd(w)
		switch {
		case math.IsNaN(std):
			out[i] = math.NaN()
		case std == 0:
			out[i] = 0
		default:
			out[i] = (series[i] - mean(w)) / std
		}
	}
	return out, nil
}

// PctChange is x[t]/x[t-periods] - 1, NaN for the first periods values or a zero base
func PctChange(series []float64, periods int) ([]float64, error) {
	if err := checkPeriod("pct_change", periods); err != nil {
		return nil, err
	}
	if err := checkSeries("pct_change", series); err != nil {
		return nil, err
	}
	out := nanSlice(len(series))
	for i := periods; i < len(series); i++ {
		base := series[i-periods]
		if base == 0 || math.IsNaN(base) {
			continue
		}
		out[i] = series[i]/base - 1
	}
	return out, nil
}

// Shift lags a series by n bars, filling the leading positions with NaN
func Shift(series []float64, n int) []float64 {
	out := nanSlice(len(series))
	if n < 0 {
		n = 0
	}
	for i := n; i < len(series); i++ {
		out[i] = series[i-n]
	}
	return out
}
