package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Lookup errors
	ErrNotFound       = errors.New("resource not found")
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
	ErrModelNotFound  = fmt.Errorf("%w: model", ErrNotFound)

	// Data errors
	ErrInsufficientData    = errors.New("insufficient data for analysis")
	ErrColumnNotNumeric    = errors.New("column is not numeric")
	ErrUnknownDistribution = errors.New("unknown reference distribution")
	ErrUnsupportedFile     = errors.New("unsupported file type")

	// Usage errors
	ErrFeatureMismatch = errors.New("feature set does not match trained model")
	ErrModelNotFitted  = errors.New("model has not been fitted")
)

// Error constructors with context
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewInsufficientDataError(operation string, have, need int) error {
	return fmt.Errorf("%w: %s has %d rows, needs %d", ErrInsufficientData, operation, have, need)
}

func NewFeatureMismatchError(missing, extra []string) error {
	return fmt.Errorf("%w: missing %v, unexpected %v", ErrFeatureMismatch, missing, extra)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUsageError(err error) bool {
	return errors.Is(err, ErrFeatureMismatch) ||
		errors.Is(err, ErrModelNotFitted)
}
