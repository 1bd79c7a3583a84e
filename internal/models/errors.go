package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrInvalidID          = errors.New("invalid ID format")
	ErrInsufficientData   = errors.New("insufficient data")
	ErrMissingColumns     = errors.New("missing required columns")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrUnknownProfile     = errors.New("unknown asset profile")
)

// InsufficientDataError is returned when a series is too short for a component's warm-up
type InsufficientDataError struct {
	Component string
	Required  int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d rows, got %d", e.Component, e.Required, e.Got)
}

// Is matches ErrInsufficientData
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// MissingColumnsError names the required columns absent from an input frame
type MissingColumnsError struct {
	Component string
	Columns   []string
}

func (e *MissingColumnsError) Error() string {
	cols := append([]string(nil), e.Columns...)
	sort.Strings(cols)
	return fmt.Sprintf("%s: missing required columns: %s", e.Component, strings.Join(cols, ", "))
}

// Is matches ErrMissingColumns
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// RequireColumns returns a MissingColumnsError when any name is absent from f
func RequireColumns(component string, f *Frame, names ...string) error {
	if missing := f.Missing(names...); len(missing) > 0 {
		return &MissingColumnsError{Component: component, Columns: missing}
	}
	return nil
}

// RequireRows returns an InsufficientDataError when f has fewer than min rows
func RequireRows(component string, f *Frame, minRows int) error {
	if f.Len() < minRows {
		return &InsufficientDataError{Component: component, Required: minRows, Got: f.Len()}
	}
	return nil
}
