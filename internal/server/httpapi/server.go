// Package httpapi exposes the cloud drive over HTTP using echo.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/services"
	"github.com/dmitrijs2005/clouddrive/internal/server/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

// AuthService is the account side of the API.
type AuthService interface {
	RequestLoginLink(ctx context.Context, email, redirectTo string) error
	VerifyLoginLink(ctx context.Context, token string) (*models.User, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string, everywhere bool) error
	Session(ctx context.Context, userID string) (*models.User, error)
	ProbeUsers(ctx context.Context) (int, error)
}

// FileService is the file side of the API.
type FileService interface {
	List(ctx context.Context, userID string, v drive.View, query string) ([]drive.File, error)
	Upload(ctx context.Context, userID string, in services.UploadInput) (*drive.File, error)
	Get(ctx context.Context, userID, id string) (*drive.File, error)
	ToggleStar(ctx context.Context, userID, id string) (*drive.File, error)
	Share(ctx context.Context, userID, id string) (*drive.File, error)
	Trash(ctx context.Context, userID, id string) (*drive.File, error)
	Restore(ctx context.Context, userID, id string) (*drive.File, error)
	Download(ctx context.Context, userID, id string) (*drive.File, *storage.Object, error)
	ResolvePublic(ctx context.Context, publicID string) (string, error)
}

type Server struct {
	address       string
	echo          *echo.Echo
	logger        logging.Logger
	auth          AuthService
	files         FileService
	jwtSecret     []byte
	maxUploadSize int64
}

func NewServer(address string, l logging.Logger, as AuthService, fs FileService, secretKey string, maxUploadSize int64) *Server {
	s := &Server{
		address:       address,
		logger:        l.With("module", "http_server"),
		auth:          as,
		files:         fs,
		jwtSecret:     []byte(secretKey),
		maxUploadSize: maxUploadSize,
	}
	s.echo = s.newEcho()
	return s
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = ErrorHandler(s.logger)

	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(requestLogger(s.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	s.routes(e)
	return e
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) routes(e *echo.Echo) {
	e.GET("/health", s.health)
	e.GET("/health/db", s.healthDB)

	e.GET("/auth/callback", s.authCallback)
	e.GET("/s/:publicID", s.publicFile)

	api := e.Group("/api")
	api.POST("/auth/otp", s.requestLoginLink)
	api.POST("/auth/verify", s.verifyLoginLink)
	api.POST("/auth/refresh", s.refreshToken)

	private := api.Group("", requireAuth(s.jwtSecret))
	private.POST("/auth/logout", s.logout)
	private.GET("/session", s.session)

	private.GET("/files", s.listFiles)
	private.POST("/files", s.uploadFile, middleware.BodyLimit(bodyLimit(s.maxUploadSize)))
	private.GET("/files/:id", s.getFile)
	private.GET("/files/:id/content", s.downloadFile)
	private.POST("/files/:id/star", s.toggleStar)
	private.POST("/files/:id/share", s.shareFile)
	private.POST("/files/:id/trash", s.trashFile)
	private.POST("/files/:id/restore", s.restoreFile)
}

// bodyLimit renders n bytes in the size syntax of middleware.BodyLimit.
// Multipart framing needs headroom above the file size itself.
func bodyLimit(n int64) string {
	kb := n/1024 + 64
	return fmt.Sprintf("%dK", kb)
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
