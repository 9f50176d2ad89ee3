// Package common defines shared constants, sentinel errors and small helpers
// used across HashEnv packages. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Service-level errors.
	ErrorInternal  = errors.New("internal error")
	ErrForbidden   = errors.New("forbidden")
	ErrValidation  = errors.New("validation error")
	ErrIntegrity   = errors.New("data may be corrupted or tampered with")
	ErrUnconfirmed = errors.New("confirmation required")

	// ErrConfiguration reports a missing or malformed master key or other
	// startup setting. It is fatal for the operation that hit it.
	ErrConfiguration = errors.New("configuration error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
