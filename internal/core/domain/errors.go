package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoIdentity      = errors.New("no identity signed in")
	ErrAccountExists   = errors.New("email already in use")
	ErrAccountNotFound = errors.New("account not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError reports locally detectable bad input. It is raised before
// any network call and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for one field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthError is an identity-provider rejection (bad credentials, cancelled
// federated flow, email in use). Message carries the provider's own
// human-readable text and is surfaced to the caller verbatim.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Authf wraps a provider failure, preserving its message.
func Authf(op string, err error, format string, args ...any) error {
	return &AuthError{Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// NetworkError is a backend failure: unreachable host or a non-2xx response.
// Status is zero when no response was received. The operation is abandoned;
// no retry or backoff happens anywhere in this layer.
type NetworkError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
