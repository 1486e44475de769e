package domain

import (
	"errors"
	"fmt"
)

// Error classes surfaced to callers. Every error returned by the service
// layer either wraps one of these or is treated as fatal.
var (
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a rejected input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf wraps ErrNotFound with a description of the missing entity.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Conflictf wraps ErrConflict.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// ErrorClass names the caller-visible category of an error.
type ErrorClass string

const (
	ClassConflict   ErrorClass = "conflict"
	ClassForbidden  ErrorClass = "forbidden"
	ClassNotFound   ErrorClass = "not_found"
	ClassBadRequest ErrorClass = "bad_request"
	ClassFatal      ErrorClass = "fatal"
)

// ClassOf maps an error to its class. Unclassified errors are fatal.
func ClassOf(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConflict):
		return ClassConflict
	case errors.Is(err, ErrForbidden):
		return ClassForbidden
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrValidation):
		return ClassBadRequest
	default:
		return ClassFatal
	}
}

// IsClientError reports whether err was caused by caller input or session
// state rather than an internal failure.
func IsClientError(err error) bool {
	c := ClassOf(err)
	return c != "" && c != ClassFatal
}
