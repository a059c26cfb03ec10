package httpapi

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/server/services"
	"github.com/dmitrijs2005/clouddrive/internal/wire"
	"github.com/labstack/echo/v4"
)

func (s *Server) listFiles(c echo.Context) error {
	view, err := drive.ParseView(c.QueryParam("view"))
	if err != nil {
		return NewBadRequestError("invalid view", err)
	}
	query := c.QueryParam("q")

	files, err := s.files.List(c.Request().Context(), userID(c), view, query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wire.FileListResponse{View: view, Query: query, Files: files})
}

func (s *Server) uploadFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return NewBadRequestError("multipart field \"file\" is required", err)
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer closeQuietly(src)

	f, err := s.files.Upload(c.Request().Context(), userID(c), services.UploadInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        src,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

func (s *Server) getFile(c echo.Context) error {
	f, err := s.files.Get(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

func (s *Server) downloadFile(c echo.Context) error {
	f, obj, err := s.files.Download(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return err
	}
	defer closeQuietly(obj.Body)

	contentType := obj.ContentType
	if contentType == "" {
		contentType = f.ContentType
	}

	h := c.Response().Header()
	h.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	if obj.Size > 0 {
		h.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	}
	return c.Stream(http.StatusOK, contentType, obj.Body)
}

type transitionFunc func(ctx context.Context, userID, id string) (*drive.File, error)

func (s *Server) transition(c echo.Context, fn transitionFunc, action string) error {
	f, err := fn(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return err
	}
	s.logger.Debug(c.Request().Context(), "file updated", "action", action, "file_id", f.ID)
	return c.JSON(http.StatusOK, f)
}

func (s *Server) toggleStar(c echo.Context) error {
	return s.transition(c, s.files.ToggleStar, "star")
}

func (s *Server) shareFile(c echo.Context) error {
	return s.transition(c, s.files.Share, "share")
}

func (s *Server) trashFile(c echo.Context) error {
	return s.transition(c, s.files.Trash, "trash")
}

func (s *Server) restoreFile(c echo.Context) error {
	return s.transition(c, s.files.Restore, "restore")
}

// publicFile resolves a shared link without authentication and redirects to
// a short-lived download URL.
func (s *Server) publicFile(c echo.Context) error {
	u, err := s.files.ResolvePublic(c.Request().Context(), c.Param("publicID"))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, u)
}
