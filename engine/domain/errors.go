package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrInvalidQuery     = errors.New("invalid query")
	ErrQueryTooShort    = errors.New("keywords too short")
	ErrQueryInjection   = errors.New("query contains suspicious content")
	ErrInvalidJobType   = errors.New("unrecognised job type")
	ErrInvalidWorkMode  = errors.New("unrecognised work mode")
	ErrOfferIncomplete  = errors.New("offer missing required fields")
	ErrInvalidSourceURL = errors.New("invalid source url")
	ErrUnknownSource    = errors.New("unknown source id")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
