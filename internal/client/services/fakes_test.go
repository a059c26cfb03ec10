package services

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/client/client"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/wire"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClient is an in-memory client.Client. Files follow the same
// transition rules as the server.
type fakeClient struct {
	mu sync.Mutex

	access, refresh string
	listener        client.TokenListener

	healthErr   error
	linkErr     error
	linkEmail   string
	verifyResp  *wire.TokenResponse
	verifyErr   error
	verifyToken string
	sessionUser *wire.User
	sessionErr  error
	logoutErr   error
	logouts     int

	files    map[string]drive.File
	listErr  error
	lists    int
	content  map[string]string
	uploaded map[string]string
	seq      int
}

func newFakeClient(files ...drive.File) *fakeClient {
	c := &fakeClient{files: map[string]drive.File{}, content: map[string]string{}, uploaded: map[string]string{}}
	for _, f := range files {
		c.files[f.ID] = f
	}
	return c
}

func (c *fakeClient) SetTokens(a, r string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access, c.refresh = a, r
}

func (c *fakeClient) Tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access, c.refresh
}

func (c *fakeClient) OnTokensRefreshed(fn client.TokenListener) { c.listener = fn }

func (c *fakeClient) Health(context.Context) error { return c.healthErr }

func (c *fakeClient) RequestLoginLink(_ context.Context, email, _ string) error {
	c.linkEmail = email
	return c.linkErr
}

func (c *fakeClient) VerifyLoginLink(_ context.Context, token string) (*wire.TokenResponse, error) {
	c.verifyToken = token
	if c.verifyErr != nil {
		return nil, c.verifyErr
	}
	c.SetTokens(c.verifyResp.AccessToken, c.verifyResp.RefreshToken)
	return c.verifyResp, nil
}

func (c *fakeClient) Session(context.Context) (*wire.User, error) {
	if a, _ := c.Tokens(); a == "" {
		return nil, client.ErrNotSignedIn
	}
	if c.sessionErr != nil {
		return nil, c.sessionErr
	}
	return c.sessionUser, nil
}

func (c *fakeClient) Logout(context.Context, bool) error {
	c.logouts++
	c.SetTokens("", "")
	return c.logoutErr
}

func (c *fakeClient) sorted() []drive.File {
	out := make([]drive.File, 0, len(c.files))
	for _, f := range c.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *fakeClient) ListFiles(_ context.Context, v drive.View, q string) ([]drive.File, error) {
	c.lists++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return drive.Filter(c.sorted(), v, q), nil
}

func (c *fakeClient) GetFile(_ context.Context, id string) (*drive.File, error) {
	f, ok := c.files[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	return &f, nil
}

func (c *fakeClient) UploadFile(_ context.Context, name string, size int64, open func() (io.ReadCloser, error)) (*drive.File, error) {
	r, err := open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c.seq++
	f := drive.File{
		ID:        "up" + strconv.Itoa(c.seq),
		Name:      name,
		Size:      size,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	c.files[f.ID] = f
	c.uploaded[name] = string(b)
	return &f, nil
}

func (c *fakeClient) DownloadFile(_ context.Context, id string, w io.Writer) (int64, error) {
	f, ok := c.files[id]
	if !ok {
		return 0, client.ErrNotFound
	}
	if drive.Downloadable(f) != nil {
		return 0, client.ErrConflict
	}
	n, err := io.Copy(w, strings.NewReader(c.content[id]))
	return n, err
}

func (c *fakeClient) apply(id string, fn func(drive.File) (drive.File, error)) (*drive.File, error) {
	f, ok := c.files[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	next, err := fn(f)
	if err != nil {
		return nil, client.ErrConflict
	}
	c.files[id] = next
	return &next, nil
}

func (c *fakeClient) ToggleStar(_ context.Context, id string) (*drive.File, error) {
	return c.apply(id, drive.ToggleStar)
}

func (c *fakeClient) Share(_ context.Context, id string) (*drive.File, error) {
	return c.apply(id, func(f drive.File) (drive.File, error) {
		return drive.Share(f, "p-"+id, "http://drive/s/p-"+id)
	})
}

func (c *fakeClient) Trash(_ context.Context, id string) (*drive.File, error) {
	return c.apply(id, drive.Trash)
}

func (c *fakeClient) Restore(_ context.Context, id string) (*drive.File, error) {
	return c.apply(id, drive.Restore)
}
