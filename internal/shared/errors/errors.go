// Package errors provides application-level error types and utilities.
// It defines the failure taxonomy used across the ingestion pipeline:
// transient source failures, permanent source failures, ambiguous
// resolution, delivery failures, and persistence conflicts.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeTransientSource marks network-level source failures that are
	// safe to retry. The link fingerprint is never advanced on these.
	ErrorTypeTransientSource ErrorType = "transient_source"
	// ErrorTypePermanentSource marks malformed or unsupported payloads. The
	// link is put into error state and no event is emitted.
	ErrorTypePermanentSource ErrorType = "permanent_source"
	// ErrorTypeResolutionAmbiguous marks fuzzy matches with multiple
	// near-ties below the acceptance threshold.
	ErrorTypeResolutionAmbiguous ErrorType = "resolution_ambiguous"
	// ErrorTypeDeliveryFailure marks a failed notification send attempt.
	ErrorTypeDeliveryFailure ErrorType = "delivery_failure"
	// ErrorTypePersistenceConflict marks unique-constraint races on alias or
	// link creation. Callers re-query and treat the existing row as
	// authoritative.
	ErrorTypePersistenceConflict ErrorType = "persistence_conflict"

	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

func newError(t ErrorType, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{Type: t, Message: message, Details: detail}
}

// NewTransientSourceError creates a retryable source failure.
func NewTransientSourceError(message string, details ...string) *AppError {
	return newError(ErrorTypeTransientSource, message, details...)
}

// NewPermanentSourceError creates a non-retryable source failure.
func NewPermanentSourceError(message string, details ...string) *AppError {
	return newError(ErrorTypePermanentSource, message, details...)
}

// NewResolutionAmbiguousError creates an ambiguous-resolution failure.
func NewResolutionAmbiguousError(message string, details ...string) *AppError {
	return newError(ErrorTypeResolutionAmbiguous, message, details...)
}

// NewDeliveryFailureError creates a notification delivery failure.
func NewDeliveryFailureError(message string, details ...string) *AppError {
	return newError(ErrorTypeDeliveryFailure, message, details...)
}

// NewPersistenceConflictError creates a unique-constraint race failure.
func NewPersistenceConflictError(message string, details ...string) *AppError {
	return newError(ErrorTypePersistenceConflict, message, details...)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, message, details...)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newError(ErrorTypeConflict, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, message, details...)
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsTransient reports whether err should be retried by the caller.
func IsTransient(err error) bool {
	return IsType(err, ErrorTypeTransientSource)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsPersistenceConflict reports whether err is a unique-constraint race.
func IsPersistenceConflict(err error) bool {
	return IsType(err, ErrorTypePersistenceConflict)
}
