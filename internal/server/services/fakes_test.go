package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/files"
	refreshtokensrepo "github.com/dmitrijs2005/clouddrive/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/clouddrive/internal/server/repositories/users"
	"github.com/dmitrijs2005/clouddrive/internal/server/storage"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

var errDuplicate = errors.New("duplicate key value violates unique constraint")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	byEmail map[string]*models.User
	findErr error
	getErr  error
	listOut []*models.User
	listErr error
}

func (f *fakeUsersRepo) FindOrCreateByEmail(_ context.Context, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*models.User{}
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	u := &models.User{ID: "u-" + email, Email: email, CreatedAt: time.Now()}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) List(context.Context, int, int) ([]*models.User, error) {
	return f.listOut, f.listErr
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	findOut   *models.RefreshToken
	findErr   error
	delErr    error
	createErr error

	created     []string
	deleted     []string
	deletedUser string
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID string, token string, _ time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, userID+":"+token)
	return nil
}

func (f *fakeRefreshRepo) Find(context.Context, string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	if f.delErr != nil {
		return 0, f.delErr
	}
	f.deletedUser = userID
	return 1, nil
}

// --- files ---

type fakeFilesRepo struct {
	files     map[string]drive.File
	order     []string
	createErr error
	updateErr error
	listErr   error
	updates   int
}

func newFakeFilesRepo(fs ...drive.File) *fakeFilesRepo {
	r := &fakeFilesRepo{files: map[string]drive.File{}}
	for _, f := range fs {
		r.files[f.ID] = f
		r.order = append(r.order, f.ID)
	}
	return r
}

func (r *fakeFilesRepo) Create(_ context.Context, f *drive.File) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, cur := range r.files {
		if cur.ID == f.ID || (cur.UserID == f.UserID && cur.StoragePath == f.StoragePath) {
			return errDuplicate
		}
	}
	f.CreatedAt, f.UpdatedAt = time.Now(), time.Now()
	r.files[f.ID] = *f
	r.order = append([]string{f.ID}, r.order...)
	return nil
}

func (r *fakeFilesRepo) ListByUser(_ context.Context, userID string) ([]drive.File, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []drive.File{}
	for _, id := range r.order {
		if f := r.files[id]; f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFilesRepo) GetByID(_ context.Context, userID, id string) (*drive.File, error) {
	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (r *fakeFilesRepo) GetByPublicID(_ context.Context, publicID string) (*drive.File, error) {
	for _, f := range r.files {
		if f.PublicID != nil && *f.PublicID == publicID && f.IsShared && !f.IsDeleted {
			return &f, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeFilesRepo) UpdateFlags(_ context.Context, f *drive.File) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.files[f.ID]; !ok {
		return common.ErrorNotFound
	}
	r.updates++
	f.UpdatedAt = time.Now()
	r.files[f.ID] = *f
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	f *fakeFilesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository                     { return m.f }

// --- link store / mailer ---

type fakeLinks struct {
	saved      map[string]string
	saveErr    error
	consumeErr error
}

func (l *fakeLinks) Save(_ context.Context, token, email string, _ time.Duration) error {
	if l.saveErr != nil {
		return l.saveErr
	}
	if l.saved == nil {
		l.saved = map[string]string{}
	}
	l.saved[token] = email
	return nil
}

func (l *fakeLinks) Consume(_ context.Context, token string) (string, error) {
	if l.consumeErr != nil {
		return "", l.consumeErr
	}
	email, ok := l.saved[token]
	if !ok {
		return "", common.ErrLinkExpired
	}
	delete(l.saved, token)
	return email, nil
}

type sentMail struct {
	to, link string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendLoginLink(_ context.Context, to, link string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, link: link})
	return nil
}

// --- blobs ---

type fakeBlobs struct {
	mu        sync.Mutex
	data      map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{data: map[string][]byte{}} }

func (b *fakeBlobs) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = data
	return nil
}

func (b *fakeBlobs) Get(_ context.Context, key string) (*storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data))}, nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, key)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.data, key)
	return nil
}

func (b *fakeBlobs) PresignGet(_ context.Context, key, filename string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	return "https://s3.local/" + key + "?dl=" + filename, nil
}
