package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/clouddrive/internal/wire"
	"github.com/labstack/echo/v4"
)

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, wire.HealthResponse{Status: "ok"})
}

// healthDB runs the smallest privileged query the API has: one page of
// users with page size 1.
func (s *Server) healthDB(c echo.Context) error {
	n, err := s.auth.ProbeUsers(c.Request().Context())
	if err != nil {
		s.logger.Error(c.Request().Context(), "db health check failed", "error", err)
		return c.JSON(http.StatusInternalServerError, wire.HealthResponse{Status: "error", Message: err.Error()})
	}
	return c.JSON(http.StatusOK, wire.HealthResponse{Status: "db ok", UsersChecked: &n})
}
