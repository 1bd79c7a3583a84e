package indicators

import "math"

// RelativeStrength is the rolling z-score of the asset/benchmark price ratio.
// A bar whose ratio is undefined (missing benchmark or asset price) is NaN.
// Every other undefined z-score (warm-up, zero deviation, window touching a
// missing ratio) is 0.
func RelativeStrength(asset, benchmark []float64, period int) ([]float64, error) {
	if err := checkPeriod("relative_strength", period); err != nil {
		return nil, err
	}
	if err := checkSeries("relative_strength", asset, benchmark); err != nil {
		return nil, err
	}

	ratio := make([]float64, len(asset))
	for i := range asset {
		ratio[i] = asset[i] / benchmark[i]
		if math.IsInf(ratio[i], 0) {
			ratio[i] = math.NaN()
		}
	}

	out := make([]float64, len(asset))
	for i := range ratio {
		if math.IsNaN(ratio[i]) {
			out[i] = math.NaN()
			continue
		}
		if i+1 < period {
			continue
		}
		w := ratio[i+1-period : i+1]
		if hasNaN(w) {
			continue
		}
		std := sampleStd(w)
		if math.IsNaN(std) || std == 0 {
			continue
		}
		out[i] = (ratio[i] - mean(w)) / std
	}
	return out, nil
}
