// Package wire holds the JSON bodies exchanged between the API server and
// the CLI client, together with the error codes the server emits.
package wire

import (
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/drive"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
	CodeLinkExpired         = "LINK_EXPIRED"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeTooLarge            = "TOO_LARGE"
	CodeHTTP                = "HTTP_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type LoginLinkRequest struct {
	Email      string `json:"email" validate:"required,email"`
	RedirectTo string `json:"redirect_to,omitempty" validate:"omitempty,url"`
}

type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	Everywhere   bool   `json:"everywhere,omitempty"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

type SessionResponse struct {
	User User `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type FileListResponse struct {
	View  drive.View   `json:"view"`
	Query string       `json:"query,omitempty"`
	Files []drive.File `json:"files"`
}

// HealthResponse is returned by /health and /health/db.
type HealthResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	UsersChecked *int   `json:"usersChecked,omitempty"`
}
