package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/config"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clouddrive/internal/server/storage"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	newFileID   = func() string { return uuid.NewString() }
	newPublicID = func() (string, error) { return gonanoid.New() }
	now         = time.Now
)

const defaultContentType = "application/octet-stream"

// FileService owns file metadata and contents of signed-in users and the
// resolution of public links.
type FileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	blobs         storage.BlobStore
	logger        logging.Logger
	publicBaseURL string
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs storage.BlobStore, logger logging.Logger, cfg *config.Config) *FileService {
	return &FileService{
		db:            db,
		repomanager:   m,
		blobs:         blobs,
		logger:        logger,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// List returns the files of userID in view v whose names contain query,
// newest first.
func (s *FileService) List(ctx context.Context, userID string, v drive.View, query string) ([]drive.File, error) {
	all, err := s.repomanager.Files(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return drive.Filter(all, v, query), nil
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores the blob first and then its metadata row. The key carries the
// new file id, so it is never shared with another record; when the row cannot
// be written only that key is removed again.
func (s *FileService) Upload(ctx context.Context, userID string, in UploadInput) (*drive.File, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("file name is empty: %w", common.ErrorValidation)
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	id := newFileID()
	path := drive.StoragePath(userID, now(), id, in.Name)
	if err := s.blobs.Put(ctx, path, in.Body, in.Size, contentType); err != nil {
		return nil, fmt.Errorf("error storing file: %w", err)
	}

	f := &drive.File{
		ID:          id,
		UserID:      userID,
		StoragePath: path,
		Name:        drive.NameFromPath(path),
		Size:        in.Size,
		ContentType: contentType,
	}
	if err := s.repomanager.Files(s.db).Create(ctx, f); err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			s.logger.Error(ctx, "orphan blob cleanup failed", "path", path, "error", delErr)
		}
		return nil, fmt.Errorf("error saving file metadata: %w", err)
	}

	s.logger.Info(ctx, "file uploaded", "user_id", userID, "file_id", f.ID, "size", f.Size)
	return f, nil
}

// Get returns one file of userID, trashed or not.
func (s *FileService) Get(ctx context.Context, userID, id string) (*drive.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Files(s.db).GetByID(ctx, userID, id)
}

func (s *FileService) ToggleStar(ctx context.Context, userID, id string) (*drive.File, error) {
	return s.transition(ctx, userID, id, drive.ToggleStar)
}

func (s *FileService) Trash(ctx context.Context, userID, id string) (*drive.File, error) {
	return s.transition(ctx, userID, id, drive.Trash)
}

func (s *FileService) Restore(ctx context.Context, userID, id string) (*drive.File, error) {
	return s.transition(ctx, userID, id, drive.Restore)
}

// Share makes a file public. The public id is generated only for a file that
// is not shared yet, so sharing twice keeps the first link.
func (s *FileService) Share(ctx context.Context, userID, id string) (*drive.File, error) {
	return s.transition(ctx, userID, id, func(f drive.File) (drive.File, error) {
		if f.IsShared || f.IsDeleted {
			return drive.Share(f, "", "")
		}
		publicID, err := newPublicID()
		if err != nil {
			return f, fmt.Errorf("error generating public id: %w", err)
		}
		return drive.Share(f, publicID, s.PublicURL(publicID))
	})
}

// PublicURL is the unauthenticated link of a shared file.
func (s *FileService) PublicURL(publicID string) string {
	return s.publicBaseURL + "/s/" + publicID
}

// transition loads the file, applies fn and persists the flags in one
// transaction. A transition that changes nothing skips the write.
func (s *FileService) transition(ctx context.Context, userID, id string, fn func(drive.File) (drive.File, error)) (*drive.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	return dbx.WithTxResult(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*drive.File, error) {
		repo := s.repomanager.Files(tx)

		cur, err := repo.GetByID(ctx, userID, id)
		if err != nil {
			return nil, err
		}

		next, err := fn(*cur)
		if err != nil {
			return nil, err
		}
		if sameFlags(*cur, next) {
			return cur, nil
		}

		if err := repo.UpdateFlags(ctx, &next); err != nil {
			return nil, fmt.Errorf("error updating file: %w", err)
		}
		return &next, nil
	})
}

func sameFlags(a, b drive.File) bool {
	return a.IsStarred == b.IsStarred &&
		a.IsShared == b.IsShared &&
		a.IsDeleted == b.IsDeleted &&
		a.Link() == b.Link()
}

// Download opens the content of a non-trashed file. The caller closes the
// object body.
func (s *FileService) Download(ctx context.Context, userID, id string) (*drive.File, *storage.Object, error) {
	f, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if err := drive.Downloadable(*f); err != nil {
		return nil, nil, err
	}
	obj, err := s.blobs.Get(ctx, f.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading file: %w", err)
	}
	return f, obj, nil
}

// ResolvePublic returns a short-lived download URL for a shared file.
// Unknown, unshared and trashed files are all reported as not found.
func (s *FileService) ResolvePublic(ctx context.Context, publicID string) (string, error) {
	f, err := s.repomanager.Files(s.db).GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", err
		}
		return "", fmt.Errorf("error resolving link: %w", err)
	}
	u, err := s.blobs.PresignGet(ctx, f.StoragePath, f.Name)
	if err != nil {
		return "", fmt.Errorf("error signing link: %w", err)
	}
	return u, nil
}
