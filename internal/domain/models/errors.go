package models

import "fmt"

// Violation describes one field that failed validation.
type Violation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Value      any    `json:"value,omitempty"`
}

// ValidationError rejects a record whose fields are malformed or out of
// bounds. It is always recoverable by the caller and carries every violation
// found; one invalid field fails the entire record.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("validation failed: %s %s", e.Violations[0].Field, e.Violations[0].Constraint)
	}
	return fmt.Sprintf("validation failed: %d violations", len(e.Violations))
}

// NewValidationError builds a ValidationError from violations.
func NewValidationError(violations ...Violation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// NotFoundError signals a referenced entity that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ConflictError signals a duplicate unique key.
type ConflictError struct {
	Resource string
	Key      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Resource, e.Key)
}

// StorageError wraps a fault from the durable layer. It is logged server-side
// and surfaced to callers as an opaque failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
