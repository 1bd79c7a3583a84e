package features

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wealth-ops/internal/models"
)

func makeFrame(t *testing.T, n int, seed int64) *models.Frame {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	price := 50.0
	for i := range bars {
		open := price
		price = math.Max(1, price*(1+r.NormFloat64()*0.015))
		bars[i] = models.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, price) + r.Float64(),
			Low:    math.Min(open, price) - r.Float64()*0.5,
			Close:  price,
			Volume: 1e5 + r.Float64()*1e5,
		}
	}
	f, err := models.FrameFromBars(bars)
	require.NoError(t, err)
	return f
}

var baseFeatures = []string{
	models.ColRSI14, models.ColEMA8, models.ColEMA20, models.ColEMA50, models.ColMACDHist,
	models.ColADX14, models.ColATR14, models.ColUpperWick, models.ColLowerWick,
	models.ColEMAFan, models.ColDistFromLow,
}

func TestCompute_FeatureCounts(t *testing.T) {
	frame := makeFrame(t, 120, 1)
	bench := makeFrame(t, 120, 2)

	tests := []struct {
		name  string
		opts  Options
		extra []string
	}{
		{"base only", Options{}, nil},
		{"with volume", Options{VolumeFeatures: true}, []string{models.ColOBV, models.ColVolumeRatio}},
		{"with benchmark", Options{Benchmark: bench}, []string{models.ColRSZScore}},
		{"everything", Options{VolumeFeatures: true, Benchmark: bench},
			[]string{models.ColOBV, models.ColVolumeRatio, models.ColRSZScore}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewAssembler(nil).Compute(frame, tt.opts)
			require.NoError(t, err)

			assert.Len(t, out.Columns(), len(models.OHLCVColumns)+len(baseFeatures)+len(tt.extra))
			assert.True(t, out.Has(baseFeatures...))
			assert.True(t, out.Has(tt.extra...))
		})
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	frame := makeFrame(t, 80, 3)
	before := frame.Columns()

	_, err := NewAssembler(nil).Compute(frame, Options{VolumeFeatures: true})
	require.NoError(t, err)

	assert.Equal(t, before, frame.Columns())
}

func TestCompute_InsufficientData(t *testing.T) {
	frame := makeFrame(t, 49, 4)

	_, err := NewAssembler(nil).Compute(frame, Options{})
	require.Error(t, err)

	var ide *models.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, MinRows, ide.Required)
	assert.Equal(t, 49, ide.Got)
}

func TestCompute_NilFrame(t *testing.T) {
	assert.NotPanics(t, func() {
		_, err := NewAssembler(nil).Compute(nil, Options{})
		assert.ErrorContains(t, err, "frame is required")
	})
}

func TestCompute_MissingColumns(t *testing.T) {
	full := makeFrame(t, 60, 5)
	frame, err := models.NewFrame(full.Dates())
	require.NoError(t, err)
	c, _ := full.Column(models.ColClose)
	require.NoError(t, frame.Set(models.ColClose, c))

	_, err = NewAssembler(nil).Compute(frame, Options{})
	assert.True(t, errors.Is(err, models.ErrMissingColumns))
}

func TestCompute_BenchmarkMisalignedDateIsNaN(t *testing.T) {
	frame := makeFrame(t, 80, 6)
	full := makeFrame(t, 80, 7)

	dates := append([]time.Time(nil), full.Dates()[:40]...)
	dates = append(dates, full.Dates()[41:]...)
	bench, err := models.NewFrame(dates)
	require.NoError(t, err)
	c, _ := full.Column(models.ColClose)
	closes := append(append([]float64(nil), c[:40]...), c[41:]...)
	require.NoError(t, bench.Set(models.ColClose, closes))

	out, err := NewAssembler(nil).Compute(frame, Options{Benchmark: bench})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(out.Value(models.ColRSZScore, 40)))
	assert.False(t, math.IsNaN(out.Value(models.ColRSZScore, 70)))
}

func TestCompute_LogsFeatureCount(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	_, err := NewAssembler(logger).Compute(makeFrame(t, 60, 8), Options{VolumeFeatures: true})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Computed 13 features for 60 bars")
}
