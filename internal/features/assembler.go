// Package features assembles indicator columns onto an OHLCV frame.
package features

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/wealth-ops/internal/indicators"
	"github.com/yourusername/wealth-ops/internal/models"
)

// MinRows is the longest base warm-up (EMA 50)
const MinRows = 50

const component = "feature assembler"

// Options selects the optional feature groups
type Options struct {
	// VolumeFeatures adds OBV and volume ratio
	VolumeFeatures bool
	// Benchmark, when set, adds the relative-strength z-score against its close column
	Benchmark *models.Frame
}

// OptionsForProfile derives options from an asset profile
func OptionsForProfile(profile models.AssetProfile, benchmark *models.Frame) Options {
	return Options{VolumeFeatures: profile.VolumeFeatures, Benchmark: benchmark}
}

// Assembler computes the feature table for one OHLCV series
type Assembler struct {
	logger logrus.FieldLogger
}

// NewAssembler creates an assembler; a nil logger discards output
func NewAssembler(logger logrus.FieldLogger) *Assembler {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Assembler{logger: logger}
}

type column struct {
	name    string
	compute func() ([]float64, error)
}

// Compute returns a new frame holding the input columns plus 11 base features,
// 2 volume features when enabled and the relative-strength z-score when a
// benchmark with a close column is supplied. The input frame is not modified.
func (a *Assembler) Compute(frame *models.Frame, opts Options) (*models.Frame, error) {
	if frame == nil {
		return nil, fmt.Errorf("%s: frame is required", component)
	}
	if err := models.RequireColumns(component, frame, models.OHLCVColumns...); err != nil {
		return nil, err
	}
	if err := models.RequireRows(component, frame, MinRows); err != nil {
		return nil, err
	}

	open, _ := frame.Column(models.ColOpen)
	high, _ := frame.Column(models.ColHigh)
	low, _ := frame.Column(models.ColLow)
	closes, _ := frame.Column(models.ColClose)
	volume, _ := frame.Column(models.ColVolume)

	cols := []column{
		{models.ColRSI14, func() ([]float64, error) { return indicators.RSI(closes, 14) }},
		{models.ColEMA8, func() ([]float64, error) { return indicators.EMA(closes, 8) }},
		{models.ColEMA20, func() ([]float64, error) { return indicators.EMA(closes, 20) }},
		{models.ColEMA50, func() ([]float64, error) { return indicators.EMA(closes, 50) }},
		{models.ColMACDHist, func() ([]float64, error) { return indicators.MACDHistogram(closes, 12, 26, 9) }},
		{models.ColADX14, func() ([]float64, error) { return indicators.ADX(high, low, closes, 14) }},
		{models.ColATR14, func() ([]float64, error) { return indicators.ATR(high, low, closes, 14) }},
		{models.ColUpperWick, func() ([]float64, error) { return indicators.UpperWickRatio(open, high, low, closes) }},
		{models.ColLowerWick, func() ([]float64, error) { return indicators.LowerWickRatio(open, high, low, closes) }},
		{models.ColEMAFan, func() ([]float64, error) { return indicators.EMAFan(closes) }},
		{models.ColDistFromLow, func() ([]float64, error) { return indicators.DistanceFromLow(closes, low, 20) }},
	}

	if opts.VolumeFeatures {
		cols = append(cols,
			column{models.ColOBV, func() ([]float64, error) { return indicators.OBV(closes, volume) }},
			column{models.ColVolumeRatio, func() ([]float64, error) { return indicators.VolumeRatio(volume, 20, 50) }},
		)
	}

	if opts.Benchmark != nil && opts.Benchmark.Has(models.ColClose) {
		aligned := opts.Benchmark.AlignTo(models.ColClose, frame.Dates())
		cols = append(cols, column{models.ColRSZScore, func() ([]float64, error) {
			return indicators.RelativeStrength(closes, aligned, 20)
		}})
	}

	result := frame.Clone()
	for _, c := range cols {
		values, err := c.compute()
		if err != nil {
			return nil, fmt.Errorf("failed to compute %s: %w", c.name, err)
		}
		if err := result.Set(c.name, values); err != nil {
			return nil, err
		}
	}

	a.logger.WithFields(logrus.Fields{
		"features": len(cols),
		"bars":     frame.Len(),
	}).Infof("Computed %d features for %d bars", len(cols), frame.Len())

	return result, nil
}
