package httpapi

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/services"
	"github.com/dmitrijs2005/clouddrive/internal/wire"
	"github.com/labstack/echo/v4"
)

func toWireUser(u *models.User) wire.User {
	return wire.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toTokenResponse(p *services.TokenPair, u *models.User) wire.TokenResponse {
	resp := wire.TokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
	if u != nil {
		wu := toWireUser(u)
		resp.User = &wu
	}
	return resp
}

func (s *Server) requestLoginLink(c echo.Context) error {
	var req wire.LoginLinkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.auth.RequestLoginLink(c.Request().Context(), req.Email, req.RedirectTo); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wire.MessageResponse{Message: "Check your email for the login link"})
}

func (s *Server) verifyLoginLink(c echo.Context) error {
	var req wire.VerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, pair, err := s.auth.VerifyLoginLink(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	s.logger.Info(c.Request().Context(), "user signed in", "user_id", user.ID)
	return c.JSON(http.StatusOK, toTokenResponse(pair, user))
}

func (s *Server) refreshToken(c echo.Context) error {
	var req wire.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := s.auth.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTokenResponse(pair, nil))
}

func (s *Server) logout(c echo.Context) error {
	var req wire.LogoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.auth.Logout(c.Request().Context(), userID(c), req.RefreshToken, req.Everywhere); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wire.MessageResponse{Message: "signed out"})
}

func (s *Server) session(c echo.Context) error {
	user, err := s.auth.Session(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wire.SessionResponse{User: toWireUser(user)})
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Cloud Drive sign-in</title></head>
<body>
{{if .Token}}
<p>Your sign-in link is ready. Paste this command into the Cloud Drive CLI:</p>
<pre>verify {{.Token}}</pre>
{{else}}
<p>This sign-in link is incomplete. Request a new one from the CLI.</p>
{{end}}
</body>
</html>
`))

// authCallback is where emailed links land in a browser. It shows the token
// and leaves it unconsumed so the CLI can complete the sign-in.
func (s *Server) authCallback(c echo.Context) error {
	token := c.QueryParam("token")

	var buf bytes.Buffer
	if err := callbackPage.Execute(&buf, struct{ Token string }{token}); err != nil {
		return err
	}

	status := http.StatusOK
	if token == "" {
		status = http.StatusBadRequest
	}
	return c.HTMLBlob(status, buf.Bytes())
}
