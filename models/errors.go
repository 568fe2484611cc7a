package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a mutation targets a document id that does
// not exist. No broadcast is emitted for such operations.
var ErrNotFound = errors.New("not found")

// ValidationError rejects malformed mutation input before any persistence.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StorageError wraps a failed document-store or blob-store call.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Storagef wraps err as a StorageError for operation op.
func Storagef(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
