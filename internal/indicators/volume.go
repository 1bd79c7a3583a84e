package indicators

// VolumeRatio is SMA(short) / SMA(long) of volume. It is NaN during the long
// warm-up and wherever the long average is not positive.
func VolumeRatio(volume []float64, short, long int) ([]float64, error) {
	if short < 1 || long < 1 {
		return nil, invalid("volume_ratio", "periods must be >= 1, got short=%d long=%d", short, long)
	}
	if short >= long {
		return nil, invalid("volume_ratio", "short period must be < long, got short=%d long=%d", short, long)
	}
	if err := checkSeries("volume_ratio", volume); err != nil {
		return nil, err
	}

	smaShort := rolling(volume, short, mean)
	smaLong := rolling(volume, long, mean)
	out := nanSlice(len(volume))
	for i := range volume {
		if smaLong[i] > 0 {
			out[i] = smaShort[i] / smaLong[i]
		}
	}
	return out, nil
}
