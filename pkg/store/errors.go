package store

import (
	"errors"
	"fmt"
)

// StoreError represents a failure of the backing configuration store.
// It is the one infrastructure error the resolver propagates to callers,
// so that an unreachable store is never mistaken for "key not configured".
type StoreError struct {
	Backend   string // Store backend type ("sqlite", "postgres", "memory")
	Operation string // Operation that failed ("find_active", "ping", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation string, cause error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// IsStoreError reports whether err is, or wraps, a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
