package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/auth"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/services"
	"github.com/dmitrijs2005/clouddrive/internal/server/storage"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testUserID = "user-1"
)

type fakeAuth struct {
	linkErr    error
	linkEmail  string
	linkTarget string

	user      *models.User
	pair      *services.TokenPair
	verifyErr error

	refreshErr error

	logoutErr        error
	logoutUser       string
	logoutToken      string
	logoutEverywhere bool

	sessionErr error

	probeN   int
	probeErr error
}

func (f *fakeAuth) RequestLoginLink(_ context.Context, email, redirectTo string) error {
	f.linkEmail, f.linkTarget = email, redirectTo
	return f.linkErr
}

func (f *fakeAuth) VerifyLoginLink(context.Context, string) (*models.User, *services.TokenPair, error) {
	if f.verifyErr != nil {
		return nil, nil, f.verifyErr
	}
	return f.user, f.pair, nil
}

func (f *fakeAuth) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.pair, nil
}

func (f *fakeAuth) Logout(_ context.Context, userID, refreshToken string, everywhere bool) error {
	f.logoutUser, f.logoutToken, f.logoutEverywhere = userID, refreshToken, everywhere
	return f.logoutErr
}

func (f *fakeAuth) Session(_ context.Context, userID string) (*models.User, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &models.User{ID: userID, Email: "a@b.com"}, nil
}

func (f *fakeAuth) ProbeUsers(context.Context) (int, error) {
	return f.probeN, f.probeErr
}

type fakeFiles struct {
	files    []drive.File
	err      error
	listView drive.View
	listQ    string
	uploaded services.UploadInput
	body     string
	content  string
	link     string
}

func (f *fakeFiles) List(_ context.Context, _ string, v drive.View, q string) ([]drive.File, error) {
	f.listView, f.listQ = v, q
	if f.err != nil {
		return nil, f.err
	}
	return drive.Filter(f.files, v, q), nil
}

func (f *fakeFiles) Upload(_ context.Context, userID string, in services.UploadInput) (*drive.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.uploaded, f.body = in, string(b)
	return &drive.File{ID: "new", UserID: userID, Name: in.Name, Size: in.Size, ContentType: in.ContentType}, nil
}

func (f *fakeFiles) find(id string) (*drive.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.files {
		if f.files[i].ID == id {
			cp := f.files[i]
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeFiles) Get(_ context.Context, _ string, id string) (*drive.File, error) {
	return f.find(id)
}

func (f *fakeFiles) apply(id string, fn func(drive.File) (drive.File, error)) (*drive.File, error) {
	cur, err := f.find(id)
	if err != nil {
		return nil, err
	}
	next, err := fn(*cur)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (f *fakeFiles) ToggleStar(_ context.Context, _ string, id string) (*drive.File, error) {
	return f.apply(id, drive.ToggleStar)
}

func (f *fakeFiles) Share(_ context.Context, _ string, id string) (*drive.File, error) {
	return f.apply(id, func(d drive.File) (drive.File, error) {
		return drive.Share(d, "pub", "http://x/s/pub")
	})
}

func (f *fakeFiles) Trash(_ context.Context, _ string, id string) (*drive.File, error) {
	return f.apply(id, drive.Trash)
}

func (f *fakeFiles) Restore(_ context.Context, _ string, id string) (*drive.File, error) {
	return f.apply(id, drive.Restore)
}

func (f *fakeFiles) Download(_ context.Context, _ string, id string) (*drive.File, *storage.Object, error) {
	cur, err := f.find(id)
	if err != nil {
		return nil, nil, err
	}
	if err := drive.Downloadable(*cur); err != nil {
		return nil, nil, err
	}
	return cur, &storage.Object{
		Body:        io.NopCloser(strings.NewReader(f.content)),
		Size:        int64(len(f.content)),
		ContentType: cur.ContentType,
	}, nil
}

func (f *fakeFiles) ResolvePublic(context.Context, string) (string, error) {
	if f.link == "" {
		return "", common.ErrorNotFound
	}
	return f.link, nil
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fixture struct {
	auth   *fakeAuth
	files  *fakeFiles
	server *Server
}

func newFixture(files ...drive.File) *fixture {
	fa := &fakeAuth{}
	ff := &fakeFiles{files: files}
	return &fixture{
		auth:   fa,
		files:  ff,
		server: NewServer(":0", discardLogger(), fa, ff, testSecret, 1<<20),
	}
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken(testUserID, []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return common.BearerPrefix + token
}

// do sends req through the router. Requests built with authed set carry a
// valid access token.
func (fx *fixture) do(t *testing.T, req *http.Request, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	if authed {
		req.Header.Set(common.AuthorizationHeaderName, bearer(t))
	}
	rec := httptest.NewRecorder()
	fx.server.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
