// Package shared contains the error kinds and domain error values used across
// all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds, checked with errors.Is().
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")

	ErrUnauthorized = errors.New("unauthorized")
	ErrExpired      = errors.New("expired")

	ErrInternal = errors.New("internal failure")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "player", "session", "topic"
	Op      string // operation that failed, e.g. "Create", "Authenticate"
	Kind    error  // base error kind for errors.Is() checking
	Message string
	Err     error // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches the error kind as well as the wrapped error.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Domain == t.Domain && e.Op == t.Op && e.Message == t.Message
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context. The result still
// matches base, so errors.Is(WrapError(..., ErrHashFailure, ...), ErrHashFailure)
// holds.
func WrapError(base *DomainError, err error) *DomainError {
	return &DomainError{
		Domain:  base.Domain,
		Op:      base.Op,
		Kind:    base.Kind,
		Message: base.Message,
		Err:     err,
	}
}

// Player domain errors
var (
	ErrUserNotFound  = NewDomainError("player", "Find", ErrNotFound, "user not found")
	ErrNameTaken     = NewDomainError("player", "Create", ErrAlreadyExists, "name already taken")
	ErrInvalidName   = NewDomainError("player", "Validate", ErrInvalidInput, "name cannot be empty")
	ErrBadCredential = NewDomainError("player", "Login", ErrUnauthorized, "bad credential")
	ErrHashFailure   = NewDomainError("player", "Hash", ErrInternal, "password hashing failed")
)

// Session domain errors
var (
	ErrInvalidToken   = NewDomainError("session", "Authenticate", ErrUnauthorized, "invalid session token")
	ErrSessionExpired = NewDomainError("session", "Authenticate", ErrExpired, "session token expired")
)

// Topic domain errors
var (
	ErrTopicNotFound = NewDomainError("topic", "Sample", ErrNotFound, "no topic matches the settings")
	ErrInvalidRange  = NewDomainError("topic", "Validate", ErrInvalidInput, "range low is above high")
	ErrEmptyTitle    = NewDomainError("topic", "Vote", ErrInvalidInput, "page title cannot be empty")
)

// Game domain errors
var (
	ErrNoDailyChallenge     = NewDomainError("game", "DailyChallenge", ErrNotFound, "no daily challenge for today")
	ErrDailyChallengeExists = NewDomainError("game", "DailyChallenge", ErrAlreadyExists, "daily challenge already set")
	ErrInvalidMode          = NewDomainError("game", "Validate", ErrInvalidInput, "unknown game mode")
	ErrInvalidPlay          = NewDomainError("game", "Validate", ErrInvalidInput, "invalid play record")
)

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if an error is a validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
