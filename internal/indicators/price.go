package indicators

import "math"

// DistanceFromLow is (close - lowest low over period) / close. It is NaN
// during warm-up and wherever close is not positive.
func DistanceFromLow(close, low []float64, period int) ([]float64, error) {
	if err := checkPeriod("dist_from_low", period); err != nil {
		return nil, err
	}
	if err := checkSeries("dist_from_low", close, low); err != nil {
		return nil, err
	}

	lowest, err := RollingMin(low, period)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(close))
	for i := range close {
		if !(close[i] > 0) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (close[i] - lowest[i]) / close[i]
	}
	return out, nil
}

// RangePosition is where close sits inside the trailing high/low channel:
// 0 at the channel low, 1 at the channel high. A flat channel yields 0.5 and
// warm-up bars stay NaN.
func RangePosition(close, high, low []float64, period int) ([]float64, error) {
	if err := checkPeriod("range_position", period); err != nil {
		return nil, err
	}
	if err := checkSeries("range_position", close, high, low); err != nil {
		return nil, err
	}

	highest, err := RollingMax(high, period)
	if err != nil {
		return nil, err
	}
	lowest, err := RollingMin(low, period)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(close))
	for i := range close {
		width := highest[i] - lowest[i]
		switch {
		case math.IsNaN(width):
			out[i] = math.NaN()
		case width <= 0:
			out[i] = 0.5
		default:
			out[i] = (close[i] - lowest[i]) / width
		}
	}
	return out, nil
}
