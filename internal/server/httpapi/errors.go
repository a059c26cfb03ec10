package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/wire"
	"github.com/labstack/echo/v4"
)

// APIError is an error with its HTTP status and JSON body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{Status: http.StatusBadRequest, Code: wire.CodeBadRequest, Message: message}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

func NewValidationError(cause error) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: wire.CodeValidation, Message: "validation failed", Details: cause.Error()}
}

// toAPIError maps service sentinels to responses. Unknown errors become a
// bare 500 so internals do not leak.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code := wire.CodeHTTP
		if httpErr.Code == http.StatusRequestEntityTooLarge {
			code = wire.CodeTooLarge
		}
		return &APIError{Status: httpErr.Code, Code: code, Message: fmt.Sprintf("%v", httpErr.Message)}
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return &APIError{Status: http.StatusNotFound, Code: wire.CodeNotFound, Message: "not found"}
	case errors.Is(err, common.ErrInvalidTransition):
		return &APIError{Status: http.StatusConflict, Code: wire.CodeConflict, Message: err.Error()}
	case errors.Is(err, common.ErrorValidation):
		return &APIError{Status: http.StatusBadRequest, Code: wire.CodeValidation, Message: err.Error()}
	case errors.Is(err, common.ErrLinkExpired):
		return &APIError{Status: http.StatusUnauthorized, Code: wire.CodeLinkExpired, Message: common.ErrLinkExpired.Error()}
	case errors.Is(err, common.ErrTokenExpired):
		return &APIError{Status: http.StatusUnauthorized, Code: wire.CodeTokenExpired, Message: common.ErrTokenExpired.Error()}
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return &APIError{Status: http.StatusUnauthorized, Code: wire.CodeRefreshTokenExpired, Message: common.ErrRefreshTokenExpired.Error()}
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return &APIError{Status: http.StatusUnauthorized, Code: wire.CodeUnauthorized, Message: "unauthorized"}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: wire.CodeInternal, Message: "an unexpected error occurred"}
	}
}

// ErrorHandler returns the echo HTTPErrorHandler writing APIError bodies.
// Server-side failures are logged with their cause.
func ErrorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := toAPIError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "error", err)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(apiErr.Status)
		} else {
			werr = c.JSON(apiErr.Status, wire.ErrorResponse{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details})
		}
		if werr != nil {
			logger.Warn(c.Request().Context(), "write error response", "error", werr)
		}
	}
}
