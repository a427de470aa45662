// Package util provides shared helpers: numeric parsing and formatting of
// speed values, and error aggregation.
package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ─── Speed Parsing ────────────────────────────────────────────────────────────

// ParseSpeed parses a top-speed cell. Unlike a lenient coercion it never
// yields NaN silently: empty, non-numeric, NaN, infinite and negative values
// are all errors.
// Uses strconv.ParseFloat to avoid locale issues.
func ParseSpeed(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	switch {
	case math.IsNaN(v):
		return 0, fmt.Errorf("not a number")
	case math.IsInf(v, 0):
		return 0, fmt.Errorf("infinite value")
	case v < 0:
		return 0, fmt.Errorf("negative speed")
	}
	return v, nil
}

// FormatValue formats a float64 for display, showing "." for NaN.
// Whole numbers print without a decimal point ("120"), others keep the
// shortest exact representation ("88.5").
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ─── Error Helpers ────────────────────────────────────────────────────────────

// MultiError collects multiple errors and presents them as one.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}
