// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Equivalency store errors.
	ErrStoreUnavailable = errors.New("equivalency store unavailable")

	// Snapshot errors.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// StoreError reports a failed rule lookup against one tier of the equivalency store.
// It always unwraps to ErrStoreUnavailable so callers can tell "no rule" apart from
// "could not check for a rule".
type StoreError struct {
	Err   error
	Scope string
	Name  string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s edges for %q: %v", ErrStoreUnavailable, e.Scope, e.Name, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// NewStoreError wraps a store failure for the given scope and food name.
func NewStoreError(scope, name string, err error) error {
	return &StoreError{Scope: scope, Name: name, Err: err}
}

// IsStoreUnavailable reports whether err came from an unreachable equivalency store.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
