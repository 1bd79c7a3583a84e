package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wealth-ops/internal/models"
)

var splitStart = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

func newDefaultSplitter(t *testing.T) *Splitter {
	t.Helper()
	s, err := NewSplitter(DefaultSplitterConfig())
	require.NoError(t, err)
	return s
}

func TestSplitterFiveYears(t *testing.T) {
	frame := syntheticFrame(t, splitStart, 5)
	splits := newDefaultSplitter(t).All(frame)
	require.Len(t, splits, 4)

	first := splits[0]
	assert.Equal(t, frame.Date(0), first.Train.Date(0))
	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), first.TrainEnd)
	assert.True(t, first.Train.Date(first.Train.Len()-1).Before(splitStart.AddDate(3, 0, 0)))
	assert.True(t, first.Train.Date(first.Train.Len()-1).Before(first.TestStart))
	assert.Equal(t, first.Test.Date(0), first.TestStart)
	assert.True(t, first.Test.Date(first.Test.Len()-1).Before(first.TestEnd))

	for i, split := range splits {
		assert.Equal(t, i, split.Index)
		// expanding train window
		assert.Equal(t, frame.Date(0), split.Train.Date(0))
		assert.Equal(t, addMonths(first.TrainEnd, 6*i), split.TrainEnd)
		assert.Greater(t, split.Test.Len(), 0)
		assert.Equal(t, frame.SearchDate(split.TrainEnd), split.Train.Len())
		if i > 0 {
			assert.Greater(t, split.Train.Len(), splits[i-1].Train.Len())
		}
	}
}

func TestSplitterIteratorIsLazyAndFinite(t *testing.T) {
	frame := syntheticFrame(t, splitStart, 5)
	splitter := newDefaultSplitter(t)

	it := splitter.Split(frame)
	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 4, count)

	_, ok := it.Next()
	assert.False(t, ok, "exhausted iterator must stay exhausted")

	again := splitter.All(frame)
	assert.Len(t, again, 4, "re-invoking on the same input yields a fresh sequence")
}

func TestSplitterMinTrainRows(t *testing.T) {
	frame := syntheticFrame(t, splitStart, 5)

	cfg := DefaultSplitterConfig()
	cfg.MinTrainRows = 800
	s, err := NewSplitter(cfg)
	require.NoError(t, err)

	splits := s.All(frame)
	require.NotEmpty(t, splits)
	for _, split := range splits {
		assert.GreaterOrEqual(t, split.Train.Len(), 800)
	}
	assert.Less(t, len(splits), 4)

	cfg.MinTrainRows = 100000
	s, err = NewSplitter(cfg)
	require.NoError(t, err)
	assert.Empty(t, s.All(frame))
}

func TestSplitterShortOrEmptySeries(t *testing.T) {
	splitter := newDefaultSplitter(t)

	assert.Empty(t, splitter.All(syntheticFrame(t, splitStart, 2)))
	assert.Empty(t, splitter.All(syntheticFrame(t, splitStart, 3)))

	empty, err := models.NewFrame(nil)
	require.NoError(t, err)
	assert.Empty(t, splitter.All(empty))
	assert.Empty(t, splitter.All(nil))
}

func TestSplitterConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  SplitterConfig
	}{
		{"zero train years", SplitterConfig{TrainYears: 0, TestMonths: 6, RollMonths: 6}},
		{"zero test months", SplitterConfig{TrainYears: 3, TestMonths: 0, RollMonths: 6}},
		{"zero roll", SplitterConfig{TrainYears: 3, TestMonths: 6, RollMonths: 0}},
		{"negative rows", SplitterConfig{TrainYears: 3, TestMonths: 6, RollMonths: 6, MinTrainRows: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		in     time.Time
		months int
		want   time.Time
	}{
		{time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2019, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2019, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2019, 8, 31, 0, 0, 0, 0, time.UTC), 6, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC), 36, time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)},
		{time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), 6, time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, addMonths(tt.in, tt.months))
	}
}
