package indicators

import "math"

// EMA is the exponential moving average with span smoothing. The first
// period-1 values are NaN.
func EMA(series []float64, period int) ([]float64, error) {
	if err := checkPeriod("ema", period); err != nil {
		return nil, err
	}
	if err := checkSeries("ema", series); err != nil {
		return nil, err
	}
	return spanEWM(series, period, period), nil
}

// ADX is the Average Directional Index. True range and directional movement
// are Wilder smoothed, the directional index is smoothed by a second Wilder
// pass, and a zero denominator in the directional index yields 0.
// The first 2*period-1 values are NaN.
func ADX(high, low, close []float64, period int) ([]float64, error) {
	if err := checkPeriod("adx", period); err != nil {
		return nil, err
	}
	if err := checkSeries("adx", high, low, close); err != nil {
		return nil, err
	}

	tr := trueRange(high, low, close)
	plusDM := make([]float64, len(high))
	minusDM := make([]float64, len(high))
	for i := 1; i < len(high); i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atrSmooth := wilder(tr, period)
	plusSmooth := wilder(plusDM, period)
	minusSmooth := wilder(minusDM, period)

	dx := make([]float64, len(high))
	for i := range dx {
		plusDI := 100 * plusSmooth[i] / atrSmooth[i]
		minusDI := 100 * minusSmooth[i] / atrSmooth[i]
		v := 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
		if math.IsNaN(v) {
			v = 0
		}
		dx[i] = v
	}

	out := wilder(dx, period)
	maskWarmup(out, 2*period-1)
	return out, nil
}

// EMAFan is 1 when EMA8 > EMA20 > EMA50 and 0 otherwise. The first 49 values
// are NaN.
func EMAFan(close []float64) ([]float64, error) {
	if err := checkSeries("ema_fan", close); err != nil {
		return nil, err
	}

	ema8 := spanEWM(close, 8, 8)
	ema20 := spanEWM(close, 20, 20)
	ema50 := spanEWM(close, 50, 50)

	out := make([]float64, len(close))
	for i := range close {
		if ema8[i] > ema20[i] && ema20[i] > ema50[i] {
			out[i] = 1
		}
	}
	maskWarmup(out, 49)
	return out, nil
}
