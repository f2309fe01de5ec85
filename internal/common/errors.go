// Package common defines shared constants and sentinel errors used across
// client and server layers of notekeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrActivationConflict is returned by the credential store when a pending
	// registration was already activated by a concurrent login. The account
	// service recovers from it and never surfaces it to callers.
	ErrActivationConflict = errors.New("activation conflict")

	// Service-level errors.
	ErrorInternal            = errors.New("internal error")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrDuplicateRegistration = errors.New("student id already registered")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrorIncorrectNoteID     = errors.New("incorrect note id")
	ErrorValidation          = errors.New("validation error")
	ErrAuthRequired          = errors.New("authentication required")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSubjectNotFound  = errors.New("token subject not found")
)

// IsTokenError reports whether err belongs to the token failure family. All
// of them collapse to a single "unauthorized" outcome at the transport level.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenSubjectNotFound) ||
		errors.Is(err, ErrAuthRequired)
}
