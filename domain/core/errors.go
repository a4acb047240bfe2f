package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrEventNotFound     = fmt.Errorf("%w: event", ErrNotFound)
	ErrIndicatorNotFound = fmt.Errorf("%w: indicator", ErrNotFound)

	// Validation errors
	ErrInvalidConfidence = errors.New("confidence level must be in (0, 1)")
	ErrInvalidParams     = errors.New("invalid engine parameters")
	ErrNoIndicators      = errors.New("no indicators to forecast")
	ErrNoForecastYears   = errors.New("no forecast years requested")
	ErrValidation        = errors.New("validation failed")

	// Boundary errors
	ErrConversion = errors.New("value conversion failed")
)

// NewConversionError reports a cell that could not be coerced to the type
// its column requires.
func NewConversionError(column string, row int, raw string) error {
	return fmt.Errorf("%w: column %q row %d: %q", ErrConversion, column, row, raw)
}

// NewParamsError reports an engine parameter outside its valid range.
func NewParamsError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParams, field, reason)
}

// NewValidationError reports an incomplete or inconsistent domain value.
func NewValidationError(entity string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, entity, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConversionError(err error) bool {
	return errors.Is(err, ErrConversion)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidConfidence) ||
		errors.Is(err, ErrInvalidParams) ||
		errors.Is(err, ErrNoIndicators) ||
		errors.Is(err, ErrNoForecastYears) ||
		errors.Is(err, ErrValidation)
}
