package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	ErrRange             = errors.New("coordinate out of range")
	ErrDegenerate        = errors.New("degenerate interpolation")
	ErrUsage             = errors.New("invalid usage")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrConfig            = errors.New("invalid configuration")
)

// RangeError reports a requested coordinate that cannot be located on a grid.
type RangeError struct {
	Dim    Dim
	Value  float64
	Reason string
}

func (e *RangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s %v: %s", ErrRange, e.Dim, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: %s %v", ErrRange, e.Dim, e.Value)
}

func (e *RangeError) Unwrap() error { return ErrRange }

// DegenerateInterpolationError means every valid sample shares the same
// coordinates, so there is nothing to interpolate between.
type DegenerateInterpolationError struct {
	Var string
}

func (e *DegenerateInterpolationError) Error() string {
	return fmt.Sprintf("%s: %s has no varying dimension", ErrDegenerate, e.Var)
}

func (e *DegenerateInterpolationError) Unwrap() error { return ErrDegenerate }

// UsageError reports a malformed query.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return fmt.Sprintf("%s: %s", ErrUsage, e.Msg) }

func (e *UsageError) Unwrap() error { return ErrUsage }

// Usagef builds a UsageError from a format string.
func Usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// SourceUnavailableError reports a dataset whose files cannot be opened.
type SourceUnavailableError struct {
	Dataset string
	Err     error
}

func (e *SourceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrSourceUnavailable, e.Dataset, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrSourceUnavailable, e.Dataset)
}

func (e *SourceUnavailableError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSourceUnavailable, e.Err}
	}
	return []error{ErrSourceUnavailable}
}

// ConfigError reports an invalid grid or catalog.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("%s: %s", ErrConfig, e.Msg) }

func (e *ConfigError) Unwrap() error { return ErrConfig }

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
