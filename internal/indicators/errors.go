// Package indicators implements pure slice-in/slice-out technical indicators.
// Outputs have the same length as their inputs and use NaN for warm-up bars.
package indicators

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError
var ErrValidation = errors.New("indicator validation failed")

// ValidationError reports bad indicator parameters or inputs
type ValidationError struct {
	Indicator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Indicator, e.Message)
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(indicator, format string, args ...any) error {
	return &ValidationError{Indicator: indicator, Message: fmt.Sprintf(format, args...)}
}

func checkPeriod(indicator string, period int) error {
	if period < 1 {
		return invalid(indicator, "period must be >= 1, got %d", period)
	}
	return nil
}

// checkSeries verifies the inputs are non-empty and share one length
func checkSeries(indicator string, series ...[]float64) error {
	if len(series) == 0 || len(series[0]) == 0 {
		return invalid(indicator, "input series must not be empty")
	}
	n := len(series[0])
	for _, s := range series[1:] {
		if len(s) == 0 {
			return invalid(indicator, "input series must not be empty")
		}
		if len(s) != n {
			return invalid(indicator, "series length mismatch: %d != %d", len(s), n)
		}
	}
	return nil
}
