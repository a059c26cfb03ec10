package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clouddrive/internal/wire"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("not allowed in the current state")
	ErrLinkExpired  = errors.New("login link is invalid or expired")
	ErrInvalidInput = errors.New("invalid input")
	ErrTokenExpired = errors.New("token expired")
	ErrNotSignedIn  = errors.New("not signed in")
)

// APIError is a non-2xx response of the API server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// Unwrap maps the server's error code onto the package sentinels so callers
// can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case wire.CodeUnauthorized, wire.CodeRefreshTokenExpired:
		return ErrUnauthorized
	case wire.CodeTokenExpired:
		return ErrTokenExpired
	case wire.CodeLinkExpired:
		return ErrLinkExpired
	case wire.CodeNotFound:
		return ErrNotFound
	case wire.CodeConflict:
		return ErrConflict
	case wire.CodeValidation, wire.CodeBadRequest, wire.CodeTooLarge:
		return ErrInvalidInput
	default:
		return nil
	}
}
