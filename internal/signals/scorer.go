package signals

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/wealth-ops/internal/indicators"
	"github.com/yourusername/wealth-ops/internal/models"
)

const component = "composite scorer"

// CompositeResult holds the per-bar composite output for one frame
type CompositeResult struct {
	Dates      []time.Time
	Score      []float64
	Signal     []Classification
	Components map[Component][]float64
	Weights    Weights
}

// Latest returns the last bar's date, score and classification
func (r *CompositeResult) Latest() (time.Time, float64, Classification) {
	n := len(r.Score)
	if n == 0 {
		return time.Time{}, 0, Neutral
	}
	return r.Dates[n-1], r.Score[n-1], r.Signal[n-1]
}

// Counts tallies bars per classification
func (r *CompositeResult) Counts() map[Classification]int {
	out := make(map[Classification]int)
	for _, s := range r.Signal {
		out[s]++
	}
	return out
}

// Scorer computes the momentum composite score
type Scorer struct {
	logger logrus.FieldLogger
}

// NewScorer creates a scorer; a nil logger discards output
func NewScorer(logger logrus.FieldLogger) *Scorer {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Scorer{logger: logger}
}

// RequiredColumns lists the feature columns Score reads
func RequiredColumns(volumeFeatures bool) []string {
	cols := []string{models.ColClose, models.ColHigh, models.ColLow, models.ColRSI14, models.ColATR14}
	if volumeFeatures {
		cols = append(cols, models.ColVolumeRatio)
	}
	return cols
}

// Score computes raw components, z-scores each over a 252-bar window and
// blends them with WeightsFor(volumeFeatures). Undefined component values
// contribute nothing to the blend.
func (s *Scorer) Score(frame *models.Frame, volumeFeatures bool) (*CompositeResult, error) {
	if frame == nil {
		return nil, fmt.Errorf("%s: frame is required", component)
	}
	if err := models.RequireColumns(component, frame, RequiredColumns(volumeFeatures)...); err != nil {
		return nil, err
	}
	if err := models.RequireRows(component, frame, MinBars); err != nil {
		return nil, err
	}

	closes, _ := frame.Column(models.ColClose)
	high, _ := frame.Column(models.ColHigh)
	low, _ := frame.Column(models.ColLow)
	rsi, _ := frame.Column(models.ColRSI14)
	atr, _ := frame.Column(models.ColATR14)

	raw := make(map[Component][]float64, len(componentOrder))
	var err error
	if raw[ComponentMomentum], err = MomentumScore(closes); err != nil {
		return nil, fmt.Errorf("failed to compute momentum component: %w", err)
	}
	if raw[ComponentTrend], err = TrendScore(closes); err != nil {
		return nil, fmt.Errorf("failed to compute trend component: %w", err)
	}
	raw[ComponentRSI] = RSIScore(rsi)
	raw[ComponentVolatility] = VolatilityScore(atr, closes)
	if raw[ComponentSupportResistance], err = SupportResistanceScore(closes, high, low); err != nil {
		return nil, fmt.Errorf("failed to compute support/resistance component: %w", err)
	}
	if volumeFeatures {
		vr, _ := frame.Column(models.ColVolumeRatio)
		raw[ComponentVolume] = VolumeScore(vr)
	}

	weights := WeightsFor(volumeFeatures)
	result := &CompositeResult{
		Dates:      append([]time.Time(nil), frame.Dates()...),
		Score:      make([]float64, frame.Len()),
		Signal:     make([]Classification, frame.Len()),
		Components: make(map[Component][]float64, len(weights)),
		Weights:    weights,
	}

	for _, c := range weights.Components() {
		z, err := indicators.RollingZScore(raw[c], ZScoreWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to normalise %s component: %w", c, err)
		}
		result.Components[c] = z
		w := weights[c]
		for i, v := range z {
			if !math.IsNaN(v) {
				result.Score[i] += w * v
			}
		}
	}

	for i, v := range result.Score {
		result.Signal[i] = Classify(v)
	}

	volume := "off"
	if volumeFeatures {
		volume = "on"
	}
	s.logger.WithFields(logrus.Fields{
		"components": len(weights),
		"bars":       frame.Len(),
		"volume":     volume,
	}).Infof("Computed Momentum Composite: %d components, %d bars, volume=%s", len(weights), frame.Len(), volume)

	return result, nil
}

// AttachSignal returns a copy of frame with composite_score and the driving
// composite_signal column (1 buy-class, -1 sell-class, 0 neutral).
func AttachSignal(frame *models.Frame, result *CompositeResult) (*models.Frame, error) {
	if len(result.Score) != frame.Len() {
		return nil, fmt.Errorf("composite result has %d bars, frame has %d", len(result.Score), frame.Len())
	}
	signal := make([]float64, len(result.Signal))
	for i, c := range result.Signal {
		signal[i] = c.Value()
	}

	out, err := frame.WithColumn(models.ColCompositeScore, result.Score)
	if err != nil {
		return nil, err
	}
	if err := out.Set(models.ColCompositeSignal, signal); err != nil {
		return nil, err
	}
	return out, nil
}
