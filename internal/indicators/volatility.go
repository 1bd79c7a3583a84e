package indicators

import "math"

// ATR is the Wilder-smoothed Average True Range. The first period values are NaN.
func ATR(high, low, close []float64, period int) ([]float64, error) {
	if err := checkPeriod("atr", period); err != nil {
		return nil, err
	}
	if err := checkSeries("atr", high, low, close); err != nil {
		return nil, err
	}

	out := wilder(trueRange(high, low, close), period)
	maskWarmup(out, period)
	return out, nil
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|); the first bar
// has no previous close and uses high-low.
func trueRange(high, low, close []float64) []float64 {
	tr := make([]float64, len(high))
	for i := range high {
		if i == 0 {
			tr[i] = high[i] - low[i]
			continue
		}
		prev := close[i-1]
		tr[i] = nanMax(high[i]-low[i], math.Abs(high[i]-prev), math.Abs(low[i]-prev))
	}
	return tr
}
