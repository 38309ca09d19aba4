package core

import (
	"errors"
	"fmt"
)

var ErrInvalidAmount = errors.New("amount must be a positive whole number")

// ValidationError is returned when caller input is rejected. Message is the
// first problem found and is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrInvalidQuery rejects a malformed listing query string.
var ErrInvalidQuery = &ValidationError{Message: "Invalid query"}

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity by its display name.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ResolutionError is returned when an account or category could not be
// found or created during a mutation.
type ResolutionError struct {
	Entity string
	Err    error
}

func (e *ResolutionError) Error() string {
	return "Failed to resolve " + e.Entity
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// StoreUnavailableError means the backing store could not be reached. Hint
// distinguishes TLS problems from plain network failures.
type StoreUnavailableError struct {
	Backend string
	Hint    string
	Err     error
}

func (e *StoreUnavailableError) Error() string {
	msg := fmt.Sprintf("%s store unavailable", e.Backend)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}
