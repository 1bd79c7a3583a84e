package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/wealth-ops/internal/models"
)

// SplitterConfig configures walk-forward windows
type SplitterConfig struct {
	TrainYears   int `json:"train_years"`
	TestMonths   int `json:"test_months"`
	RollMonths   int `json:"roll_months"`
	MinTrainRows int `json:"min_train_rows"`
}

// DefaultSplitterConfig is three years of training, six-month tests, rolled every six months
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{TrainYears: 3, TestMonths: 6, RollMonths: 6}
}

// Validate checks the window lengths
func (c SplitterConfig) Validate() error {
	if c.TrainYears < 1 {
		return fmt.Errorf("train years must be >= 1, got %d", c.TrainYears)
	}
	if c.TestMonths < 1 {
		return fmt.Errorf("test months must be >= 1, got %d", c.TestMonths)
	}
	if c.RollMonths < 1 {
		return fmt.Errorf("roll months must be >= 1, got %d", c.RollMonths)
	}
	if c.MinTrainRows < 0 {
		return fmt.Errorf("min train rows cannot be negative")
	}
	return nil
}

// Split is one expanding-train / fixed-test pair
type Split struct {
	Index     int
	TrainEnd  time.Time
	TestStart time.Time
	TestEnd   time.Time
	Train     *models.Frame
	Test      *models.Frame
}

// Splitter partitions a frame into walk-forward windows
type Splitter struct {
	config SplitterConfig
}

// NewSplitter validates cfg and returns a splitter
func NewSplitter(cfg SplitterConfig) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{config: cfg}, nil
}

// Split returns a lazy iterator over frame. Each call starts a fresh sequence.
func (s *Splitter) Split(frame *models.Frame) *SplitIterator {
	it := &SplitIterator{frame: frame, config: s.config}
	if frame == nil || frame.Len() == 0 {
		it.done = true
		return it
	}
	it.first = frame.Date(0)
	it.last = frame.Date(frame.Len() - 1)
	it.trainEnd = addMonths(it.first, s.config.TrainYears*12)
	return it
}

// All drains a fresh iterator into a slice
func (s *Splitter) All(frame *models.Frame) []Split {
	var out []Split
	it := s.Split(frame)
	for {
		split, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, split)
	}
}

// SplitIterator yields splits in order. It is finite and cannot be restarted.
type SplitIterator struct {
	frame    *models.Frame
	config   SplitterConfig
	first    time.Time
	last     time.Time
	trainEnd time.Time
	index    int
	done     bool
}

// Next returns the next split whose test window is non-empty and whose train
// window has at least MinTrainRows rows. Windows that fail those checks are skipped.
func (it *SplitIterator) Next() (Split, bool) {
	for !it.done && it.trainEnd.Before(it.last) {
		trainEnd := it.trainEnd
		testEnd := addMonths(trainEnd, it.config.TestMonths)

		trainRows := it.frame.SearchDate(trainEnd)
		testRows := it.frame.SearchDate(testEnd)

		it.trainEnd = addMonths(trainEnd, it.config.RollMonths)
		if !it.trainEnd.Before(it.last) {
			it.done = true
		}

		if testRows > trainRows && trainRows >= it.config.MinTrainRows {
			split := Split{
				Index:     it.index,
				TrainEnd:  trainEnd,
				TestStart: it.frame.Date(trainRows),
				TestEnd:   testEnd,
				Train:     it.frame.Slice(0, trainRows),
				Test:      it.frame.Slice(trainRows, testRows),
			}
			it.index++
			return split, true
		}
	}
	it.done = true
	return Split{}, false
}

// addMonths adds calendar months, clamping to the last day of the target
// month instead of overflowing into the next one
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := target.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
