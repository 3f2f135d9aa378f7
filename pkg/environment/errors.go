package environment

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that an environment code has no matching
// environment row in the backing store.
type NotFoundError struct {
	Code string // Environment code that failed to resolve
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("environment not found [code=%s]", e.Code)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(code string) *NotFoundError {
	return &NotFoundError{Code: code}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ResolutionError indicates that the current environment cannot be resolved
// to a durable identifier. This is a deployment misconfiguration: the
// detected code names an environment the store does not know. Callers must
// treat it as fatal for the operation rather than guessing an id, because a
// guessed id risks serving one environment's values to another.
type ResolutionError struct {
	Code  string // Detected environment code
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve current environment [code=%s]: %v", e.Code, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// NewResolutionError creates a new ResolutionError.
func NewResolutionError(code string, cause error) *ResolutionError {
	return &ResolutionError{
		Code:  code,
		Cause: cause,
	}
}
