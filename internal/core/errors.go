package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ledger. Callers match them with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrDuplicateWindow = errors.New("budget window overlaps an existing budget for this category")
	ErrPersistence     = errors.New("persistence failed")
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidType        = errors.New("invalid type")
	ErrMissingReference   = errors.New("missing reference")
	ErrTypeMismatch       = errors.New("category type does not match transaction type")
	ErrEndBeforeStart     = errors.New("end date must be on or after start date")
	ErrSavedExceedsTarget = errors.New("saved amount cannot exceed target amount")
	ErrDeadlinePassed     = errors.New("deadline must be in the future")
	ErrImmutableType      = errors.New("category type cannot change after creation")
)

// ValidationError reports a missing or invalid field on a create/edit request.
type ValidationError struct {
	Field string
	Err   error
}

// Invalid wraps err as a validation failure on field.
func Invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an entity id that does not resolve.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError wraps a blob store write failure.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
