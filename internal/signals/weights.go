package signals

// Component names a composite score component
type Component string

// Composite components
const (
	ComponentMomentum          Component = "momentum"
	ComponentTrend             Component = "trend"
	ComponentRSI               Component = "rsi"
	ComponentVolume            Component = "volume"
	ComponentVolatility        Component = "volatility"
	ComponentSupportResistance Component = "sr"
)

// Weights maps each component to its share of the composite
type Weights map[Component]float64

var baseWeights = Weights{
	ComponentMomentum:          0.40,
	ComponentTrend:             0.20,
	ComponentRSI:               0.15,
	ComponentVolume:            0.10,
	ComponentVolatility:        0.10,
	ComponentSupportResistance: 0.05,
}

// componentOrder fixes the summation order so results are reproducible
var componentOrder = []Component{
	ComponentMomentum,
	ComponentTrend,
	ComponentRSI,
	ComponentVolume,
	ComponentVolatility,
	ComponentSupportResistance,
}

// WeightsFor returns the weight set with or without the volume component.
// Without volume the remaining weights are rescaled to sum to one.
func WeightsFor(volumeFeatures bool) Weights {
	out := make(Weights, len(baseWeights))
	if volumeFeatures {
		for k, v := range baseWeights {
			out[k] = v
		}
		return out
	}

	total := 0.0
	for k, v := range baseWeights {
		if k != ComponentVolume {
			total += v
		}
	}
	for k, v := range baseWeights {
		if k != ComponentVolume {
			out[k] = v / total
		}
	}
	return out
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	total := 0.0
	for _, c := range componentOrder {
		total += w[c]
	}
	return total
}

// Components lists the weighted components in summation order
func (w Weights) Components() []Component {
	out := make([]Component, 0, len(w))
	for _, c := range componentOrder {
		if _, ok := w[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
