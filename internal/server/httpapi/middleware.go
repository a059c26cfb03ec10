package httpapi

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// requireAuth checks the bearer access token and stores its user id in the
// echo context under common.UserIDContextKey.
func requireAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(common.AuthorizationHeaderName)
			token, ok := strings.CutPrefix(header, common.BearerPrefix)
			if !ok || token == "" {
				return common.ErrorUnauthorized
			}

			userID, err := auth.GetUserIDFromToken(token, secret)
			if err != nil {
				if errors.Is(err, common.ErrTokenExpired) {
					return common.ErrTokenExpired
				}
				return common.ErrInvalidToken
			}

			c.Set(common.UserIDContextKey, userID)
			return next(c)
		}
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(common.UserIDContextKey).(string)
	return id
}

// requestContext copies the id set by middleware.RequestID into the request
// context so every log entry of the request carries it.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}

// requestLogger logs one line per request through the application logger.
func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				args = append(args, "error", v.Error)
				logger.Warn(c.Request().Context(), "request", args...)
				return nil
			}
			logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}
