package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformed indicates that a fetched record fails required-field validation.
	ErrMalformed = errors.New("malformed entity")

	// ErrPartial indicates that an auxiliary computation failed and its result was omitted.
	ErrPartial = errors.New("partial computation")

	// ErrUnavailable indicates that the underlying store is unreachable.
	ErrUnavailable = errors.New("store unavailable")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
// It is never conflated with an empty result set: resolvers return it only
// when the anchor itself does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// MalformedEntityError reports a record that fails required-field validation,
// such as a product with no titles. Batch consumers log it and skip the
// record instead of failing the batch.
type MalformedEntityError struct {
	Entity string
	ID     string
	Reason string
}

// Error implements the error interface.
func (e *MalformedEntityError) Error() string {
	return fmt.Sprintf("malformed %s %s: %s", e.Entity, e.ID, e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MalformedEntityError) Unwrap() error {
	return ErrMalformed
}

// PartialComputationError reports a failed fan-out branch (facet counts, a
// plot, reconciled metrics). The corresponding response field is returned
// empty; the error itself is logged, never propagated to the caller as a
// request failure.
type PartialComputationError struct {
	Branch string
	Cause  error
}

// Error implements the error interface.
func (e *PartialComputationError) Error() string {
	return fmt.Sprintf("partial computation: branch %s: %v", e.Branch, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *PartialComputationError) Unwrap() error {
	return ErrPartial
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// NewMalformedEntityError creates a new MalformedEntityError.
func NewMalformedEntityError(entity, id, reason string) *MalformedEntityError {
	return &MalformedEntityError{Entity: entity, ID: id, Reason: reason}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewPartialComputationError creates a new PartialComputationError.
func NewPartialComputationError(branch string, cause error) *PartialComputationError {
	return &PartialComputationError{Branch: branch, Cause: cause}
}
