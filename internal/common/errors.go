// Package common defines shared sentinel errors and small helpers used across
// the xthevent server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Store failures that may succeed on retry (timeouts, lost connections,
	// serialization failures).
	ErrStoreUnavailable = errors.New("store unavailable")

	// A state that the transaction boundary should have made impossible.
	ErrInvariantViolation = errors.New("invariant violation")

	// Request validation.
	ErrValidation = errors.New("validation error")

	// Auth errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidToken      = errors.New("invalid token")

	// Token lifecycle errors (sessions and registrations).
	ErrExpired = errors.New("expired")

	// Registration errors.
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrDuplicateSteamID = errors.New("steam id already registered")

	// Roster errors.
	ErrEventInactive     = errors.New("event is inactive")
	ErrAlreadyRegistered = errors.New("player already registered for event")
	ErrNotPending        = errors.New("player is not pending confirmation")
	ErrNotRegistered     = errors.New("player is not registered for event")
)

// IsRetryable reports whether err is a transient store failure. Domain errors
// are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsDuplicate reports whether err signals a uniqueness collision.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrDuplicateSteamID)
}
