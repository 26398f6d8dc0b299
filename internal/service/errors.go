package service

import (
	"errors"
	"fmt"
)

var (
	// ErrDenied means the caller's identity does not satisfy the action's
	// required class (anonymous, authenticated, admin).
	ErrDenied = errors.New("access denied")

	// ErrNotFound covers both a missing resource and one owned by someone
	// else; the two are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports missing or malformed input. Recovered locally and
// surfaced as a user-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a duplicate username or email on registration.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ExecutionError carries a store-level failure out of the admin console,
// message and SQL state included. It is only ever shown to admins.
type ExecutionError struct {
	Message string
	Code    string
}

func (e *ExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (SQLSTATE %s)", e.Message, e.Code)
	}
	return e.Message
}
