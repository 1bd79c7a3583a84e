package service

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/models"
)

// BarValidator checks fetched candles before they are persisted
type BarValidator struct {
	now func() time.Time
}

// NewBarValidator creates a new bar validator
func NewBarValidator() *BarValidator {
	return &BarValidator{now: time.Now}
}

// Validate returns every rule the bar breaks; an empty slice means valid
func (v *BarValidator) Validate(bar models.PriceBar) []string {
	var errors []string

	if bar.Ticker == "" {
		errors = append(errors, "ticker is required")
	}
	if bar.Date.IsZero() {
		errors = append(errors, "date is required")
	} else if bar.Date.After(v.now().Add(24 * time.Hour)) {
		errors = append(errors, fmt.Sprintf("date %s is in the future", bar.Date.Format("2006-01-02")))
	}

	prices := map[string]float64{"open": bar.Open, "high": bar.High, "low": bar.Low, "close": bar.Close}
	for _, name := range []string{"open", "high", "low", "close"} {
		p := prices[name]
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be a positive number, got %v", name, p))
		}
	}
	if len(errors) > 0 {
		return errors
	}

	if bar.High < bar.Low {
		errors = append(errors, fmt.Sprintf("high %.4f below low %.4f", bar.High, bar.Low))
	}
	if bar.High < math.Max(bar.Open, bar.Close) {
		errors = append(errors, fmt.Sprintf("high %.4f below open/close", bar.High))
	}
	if bar.Low > math.Min(bar.Open, bar.Close) {
		errors = append(errors, fmt.Sprintf("low %.4f above open/close", bar.Low))
	}
	if math.IsNaN(bar.Volume) || bar.Volume < 0 {
		errors = append(errors, fmt.Sprintf("volume cannot be negative, got %v", bar.Volume))
	}
	return errors
}

// Filter keeps valid bars, dropping duplicates of an already kept date
func (v *BarValidator) Filter(bars []models.PriceBar) ([]models.PriceBar, map[string][]string) {
	valid := make([]models.PriceBar, 0, len(bars))
	rejected := make(map[string][]string)
	seen := make(map[string]bool, len(bars))

	for _, b := range bars {
		key := b.Ticker + "@" + b.Date.Format("2006-01-02")
		if seen[key] {
			rejected[key] = append(rejected[key], "duplicate date")
			continue
		}
		if errs := v.Validate(b); len(errs) > 0 {
			rejected[key] = errs
			continue
		}
		seen[key] = true
		valid = append(valid, b)
	}
	return valid, rejected
}

// ValidatingWriter filters bars through a BarValidator before handing them to the next writer
type ValidatingWriter struct {
	next      datasource.BarWriter
	validator *BarValidator
	logger    logrus.FieldLogger
	rejected  atomic.Int64
}

// NewValidatingWriter wraps next
func NewValidatingWriter(next datasource.BarWriter, validator *BarValidator, logger logrus.FieldLogger) *ValidatingWriter {
	if validator == nil {
		validator = NewBarValidator()
	}
	return &ValidatingWriter{next: next, validator: validator, logger: logger}
}

// UpsertBatch persists the valid subset of bars
func (w *ValidatingWriter) UpsertBatch(ctx context.Context, bars []models.PriceBar) (int, error) {
	valid, rejected := w.validator.Filter(bars)
	if len(rejected) > 0 {
		w.rejected.Add(int64(len(rejected)))
		if w.logger != nil {
			for key, errs := range rejected {
				w.logger.WithFields(logrus.Fields{"bar": key, "errors": errs}).Warn("Rejected invalid bar")
			}
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}
	return w.next.UpsertBatch(ctx, valid)
}

// Rejected reports the number of bars dropped so far
func (w *ValidatingWriter) Rejected() int64 {
	return w.rejected.Load()
}
