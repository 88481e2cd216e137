package validation

import (
	"errors"
	"fmt"
)

// InputError reports a caller-supplied value that the calculators cannot
// accept. It halts the call that received it.
type InputError struct {
	Field  string
	Value  interface{}
	Reason string
}

// NewInputError constructs an InputError.
func NewInputError(field string, value interface{}, reason string) *InputError {
	return &InputError{Field: field, Value: value, Reason: reason}
}

// Error implements error.
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// IsInputError reports whether err, or any error it wraps, is an InputError.
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}

// RequirePositive returns an InputError when value is not strictly positive.
func RequirePositive(field string, value float64) error {
	if value <= 0 {
		return NewInputError(field, value, "must be greater than zero")
	}
	return nil
}

// RequireNonNegative returns an InputError when value is negative.
func RequireNonNegative(field string, value float64) error {
	if value < 0 {
		return NewInputError(field, value, "cannot be negative")
	}
	return nil
}

// RequireRange returns an InputError when value falls outside [lo, hi].
func RequireRange(field string, value, lo, hi float64) error {
	if value < lo || value > hi {
		return NewInputError(field, value, fmt.Sprintf("must be between %v and %v", lo, hi))
	}
	return nil
}
