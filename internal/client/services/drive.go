package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/clouddrive/internal/client/client"
	"github.com/dmitrijs2005/clouddrive/internal/client/repositories/files"
	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/filex"
)

var (
	ErrUnknownFile = errors.New("no such file")
	ErrAmbiguousID = errors.New("id prefix matches several files")
	ErrNotShared   = errors.New("file is not shared")
)

// DriveService is the File View of the CLI. It keeps the current view and
// query, fetches the collection from the server and patches the local copy
// with every record a mutation returns. A failed mutation leaves local state
// untouched.
type DriveService struct {
	client      client.Client
	db          *sql.DB
	downloadDir string

	mu    sync.Mutex
	view  drive.View
	query string
	rows  []drive.File
}

func NewDriveService(c client.Client, db *sql.DB, downloadDir string) *DriveService {
	return &DriveService{client: c, db: db, downloadDir: downloadDir, view: drive.ViewAll}
}

func (s *DriveService) repo(db dbx.DBTX) files.Repository {
	return files.NewSQLiteRepository(db)
}

// State returns the current view and query.
func (s *DriveService) State() (drive.View, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.query
}

// Load sets the view and query and fetches the matching collection.
func (s *DriveService) Load(ctx context.Context, v drive.View, query string) ([]drive.File, error) {
	fetched, err := s.client.ListFiles(ctx, v, query)
	if err != nil {
		return nil, err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).ReplaceAll(ctx, fetched)
	}); err != nil {
		return nil, fmt.Errorf("cache error: %w", err)
	}

	s.mu.Lock()
	s.view, s.query = v, query
	s.mu.Unlock()

	return s.Current(ctx)
}

// Refresh re-fetches the current view and query.
func (s *DriveService) Refresh(ctx context.Context) ([]drive.File, error) {
	v, q := s.State()
	return s.Load(ctx, v, q)
}

func (s *DriveService) SetView(ctx context.Context, v drive.View) ([]drive.File, error) {
	_, q := s.State()
	return s.Load(ctx, v, q)
}

func (s *DriveService) Search(ctx context.Context, query string) ([]drive.File, error) {
	v, _ := s.State()
	return s.Load(ctx, v, query)
}

// Current filters the local copy by the current view and query without a
// server round trip. The result becomes the row numbering for Resolve.
func (s *DriveService) Current(ctx context.Context) ([]drive.File, error) {
	all, err := s.repo(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = drive.Filter(all, s.view, s.query)
	return append([]drive.File(nil), s.rows...), nil
}

// Resolve finds a file by row number of the last listing, full id or unique
// id prefix, in that order. A number is always a row number and is never
// matched against ids.
func (s *DriveService) Resolve(ctx context.Context, ref string) (*drive.File, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if n < 1 || n > len(s.rows) {
			return nil, fmt.Errorf("row %d of %d: %w", n, len(s.rows), ErrUnknownFile)
		}
		f := s.rows[n-1]
		return &f, nil
	}

	repo := s.repo(s.db)

	f, err := repo.Get(ctx, ref)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	matches, err := repo.FindByPrefix(ctx, ref)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%q: %w", ref, ErrUnknownFile)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%q: %w", ref, ErrAmbiguousID)
	}
}

func (s *DriveService) patch(ctx context.Context, f *drive.File) error {
	if err := s.repo(s.db).Upsert(ctx, f); err != nil {
		return fmt.Errorf("cache error: %w", err)
	}
	return nil
}

type remoteAction func(ctx context.Context, id string) (*drive.File, error)

func (s *DriveService) mutate(ctx context.Context, ref string, action remoteAction) (*drive.File, error) {
	f, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	updated, err := action(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if err := s.patch(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *DriveService) ToggleStar(ctx context.Context, ref string) (*drive.File, error) {
	return s.mutate(ctx, ref, s.client.ToggleStar)
}

func (s *DriveService) Share(ctx context.Context, ref string) (*drive.File, error) {
	return s.mutate(ctx, ref, s.client.Share)
}

func (s *DriveService) Trash(ctx context.Context, ref string) (*drive.File, error) {
	return s.mutate(ctx, ref, s.client.Trash)
}

func (s *DriveService) Restore(ctx context.Context, ref string) (*drive.File, error) {
	return s.mutate(ctx, ref, s.client.Restore)
}

// Show fetches the current server record of a file.
func (s *DriveService) Show(ctx context.Context, ref string) (*drive.File, error) {
	return s.mutate(ctx, ref, s.client.GetFile)
}

// Upload sends the local file at path and adds the new record locally.
func (s *DriveService) Upload(ctx context.Context, path string) (*drive.File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, client.ErrInvalidInput)
	}

	open := func() (io.ReadCloser, error) { return os.Open(path) }
	f, err := s.client.UploadFile(ctx, filepath.Base(path), fi.Size(), open)
	if err != nil {
		return nil, err
	}
	if err := s.patch(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Download saves the content of a file. An empty dest means the download
// directory; a directory dest receives the file under its own name. Existing
// files are not overwritten. It returns the written path and byte count.
func (s *DriveService) Download(ctx context.Context, ref, dest string) (string, int64, error) {
	f, err := s.Resolve(ctx, ref)
	if err != nil {
		return "", 0, err
	}

	target, err := s.downloadTarget(dest, f.Name)
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".clouddrive-*")
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := s.client.DownloadFile(ctx, f.ID, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", 0, err
	}
	return target, n, nil
}

func (s *DriveService) downloadTarget(dest, name string) (string, error) {
	if dest == "" {
		dest = s.downloadDir
	}
	if dest == "" {
		dest = "."
	}

	if filex.IsDir(dest) || dest == s.downloadDir {
		dir, err := filex.EnsureDir(dest)
		if err != nil {
			return "", err
		}
		return filex.UniquePath(dir, name)
	}

	dir, err := filex.EnsureDir(filepath.Dir(dest))
	if err != nil {
		return "", err
	}
	return filex.UniquePath(dir, filepath.Base(dest))
}

// Link returns the public URL of a shared file from the local copy.
func (s *DriveService) Link(ctx context.Context, ref string) (string, error) {
	f, err := s.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if !f.IsShared || f.IsDeleted || f.Link() == "" {
		return "", fmt.Errorf("%s: %w", f.Name, ErrNotShared)
	}
	return f.Link(), nil
}

// Reset forgets the local copy and returns to the default view.
func (s *DriveService) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.view, s.query, s.rows = drive.ViewAll, "", nil
	s.mu.Unlock()
	return s.repo(s.db).Clear(ctx)
}
