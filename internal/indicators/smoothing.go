package indicators

import "math"

// ewm is a recursive exponentially weighted mean: out[t] = (1-a)*out[t-1] + a*x[t].
// It starts at the first observed value, treats NaN inputs as gaps that decay
// the previous weight, and masks outputs until minPeriods observations were seen.
func ewm(x []float64, alpha float64, minPeriods int) []float64 {
	if minPeriods < 1 {
		minPeriods = 1
	}
	out := make([]float64, len(x))
	var weighted float64
	started := false
	oldWeight := 1.0
	observations := 0

	for i, v := range x {
		observed := !math.IsNaN(v)
		switch {
		case !started:
			if observed {
				weighted = v
				started = true
				observations = 1
			}
		default:
			oldWeight *= 1 - alpha
			if observed {
				observations++
				if weighted != v {
					weighted = (oldWeight*weighted + alpha*v) / (oldWeight + alpha)
				}
				oldWeight = 1
			}
		}

		if started && observations >= minPeriods {
			out[i] = weighted
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// wilder smooths with alpha = 1/period
func wilder(x []float64, period int) []float64 {
	return ewm(x, 1/float64(period), period)
}

// spanEWM smooths with alpha = 2/(span+1)
func spanEWM(x []float64, span, minPeriods int) []float64 {
	return ewm(x, 2/(float64(span)+1), minPeriods)
}

// rolling applies fn to each full trailing window. A window holding any NaN
// and the first window-1 positions yield NaN.
func rolling(x []float64, window int, fn func([]float64) float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		w := x[i+1-window : i+1]
		if hasNaN(w) {
			out[i] = math.NaN()
			continue
		}
		out[i] = fn(w)
	}
	return out
}

func hasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func mean(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// sampleStd is the standard deviation with one degree of freedom; NaN below two values
func sampleStd(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	if minOf(x) == maxOf(x) {
		return 0
	}
	m := mean(x)
	ss := 0.0
	for _, v := range x {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(x)-1))
}

func minOf(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// maskWarmup sets the first n values to NaN
func maskWarmup(x []float64, n int) {
	for i := 0; i < n && i < len(x); i++ {
		x[i] = math.NaN()
	}
}

// nanMax returns the larger non-NaN value, NaN only when both are NaN
func nanMax(vals ...float64) float64 {
	out := math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v > out {
			out = v
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(lo, math.Min(hi, v))
}
