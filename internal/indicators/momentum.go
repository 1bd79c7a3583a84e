package indicators

import "math"

// RSI is the Relative Strength Index with Wilder smoothing. It saturates to
// 100 when the average loss is zero and to 0 when the average gain is zero.
// The first period values are NaN.
func RSI(close []float64, period int) ([]float64, error) {
	if err := checkPeriod("rsi", period); err != nil {
		return nil, err
	}
	if err := checkSeries("rsi", close); err != nil {
		return nil, err
	}

	gains := make([]float64, len(close))
	losses := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		delta := close[i] - close[i-1]
		if delta > 0 {
			gains[i] = delta
		} else if delta < 0 {
			losses[i] = -delta
		}
	}

	avgGain := wilder(gains, period)
	avgLoss := wilder(losses, period)

	out := make([]float64, len(close))
	for i := range close {
		switch {
		case !(avgGain[i] > 0):
			out[i] = 0
		case !(avgLoss[i] > 0):
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+avgGain[i]/avgLoss[i])
		}
	}
	maskWarmup(out, period)
	return out, nil
}

// MACDHistogram is EMA(fast) - EMA(slow) minus the signal EMA of that line.
// The first slow+signal-2 values are NaN.
func MACDHistogram(close []float64, fast, slow, signal int) ([]float64, error) {
	if fast < 1 || slow < 1 || signal < 1 {
		return nil, invalid("macd", "all periods must be >= 1, got fast=%d slow=%d signal=%d", fast, slow, signal)
	}
	if fast >= slow {
		return nil, invalid("macd", "fast period must be < slow period, got fast=%d slow=%d", fast, slow)
	}
	if err := checkSeries("macd", close); err != nil {
		return nil, err
	}

	emaFast := spanEWM(close, fast, 1)
	emaSlow := spanEWM(close, slow, 1)
	line := make([]float64, len(close))
	for i := range close {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := spanEWM(line, signal, 1)

	out := make([]float64, len(close))
	for i := range close {
		out[i] = line[i] - signalLine[i]
	}
	maskWarmup(out, slow+signal-2)
	return out, nil
}

// OBV is On-Balance Volume: cumulative volume added on up closes and
// subtracted on down closes. The first bar counts as an up bar.
func OBV(close, volume []float64) ([]float64, error) {
	if err := checkSeries("obv", close, volume); err != nil {
		return nil, err
	}

	out := make([]float64, len(close))
	total := 0.0
	for i := range close {
		direction := 1.0
		if i > 0 {
			delta := close[i] - close[i-1]
			switch {
			case delta > 0:
				direction = 1
			case delta < 0:
				direction = -1
			default:
				direction = 0
			}
		}
		step := direction * volume[i]
		if math.IsNaN(step) {
			out[i] = math.NaN()
			continue
		}
		total += step
		out[i] = total
	}
	return out, nil
}
