package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// ErrInvalidTransition is returned when a file action is not allowed in
	// the file's current lifecycle state (e.g. starring a trashed file).
	ErrInvalidTransition = errors.New("invalid file state transition")

	// Auth errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrLinkExpired means the one-time login link is unknown, already used
	// or past its TTL. The three cases are reported alike.
	ErrLinkExpired = errors.New("login link expired or already used")
)
