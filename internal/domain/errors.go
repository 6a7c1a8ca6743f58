package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist or belongs to another owner
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// UnauthenticatedReason tells why a credential did not resolve to a user
type UnauthenticatedReason string

const (
	ReasonMissing        UnauthenticatedReason = "missing"
	ReasonMalformed      UnauthenticatedReason = "malformed"
	ReasonExpired        UnauthenticatedReason = "expired"
	ReasonUnknownSubject UnauthenticatedReason = "unknown_subject"
)

// ErrUnauthenticated is returned by the identity resolver
type ErrUnauthenticated struct {
	Reason UnauthenticatedReason
}

func (e *ErrUnauthenticated) Error() string {
	return fmt.Sprintf("unauthenticated: %s", e.Reason)
}

// IsUnauthenticated reports whether err is, or wraps, an ErrUnauthenticated
func IsUnauthenticated(err error) bool {
	var target *ErrUnauthenticated
	return errors.As(err, &target)
}

// ErrOAuthState is returned when the OAuth state is unknown, expired or replayed
var ErrOAuthState = errors.New("invalid or expired oauth state")

// ErrOAuthExchange wraps failures talking to the identity provider
type ErrOAuthExchange struct {
	Err error
}

func (e *ErrOAuthExchange) Error() string {
	return fmt.Sprintf("oauth exchange failed: %v", e.Err)
}

func (e *ErrOAuthExchange) Unwrap() error {
	return e.Err
}
