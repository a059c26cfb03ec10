package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/client/client"
	"github.com/dmitrijs2005/clouddrive/internal/client/config"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/wire"
)

type fakeAuth struct {
	mu sync.Mutex

	restoreUser *wire.User
	restoreErr  error
	checkUser   *wire.User
	checkErr    error
	checks      int
	linkEmail   string
	linkErr     error
	verifyToken string
	verifyUser  *wire.User
	verifyErr   error
	everywhere  bool
	logouts     int
	logoutErr   error
	cleared     int
}

func (f *fakeAuth) RequestLoginLink(_ context.Context, email string) error {
	f.linkEmail = email
	return f.linkErr
}

func (f *fakeAuth) Verify(_ context.Context, token string) (*wire.User, error) {
	f.verifyToken = token
	return f.verifyUser, f.verifyErr
}

func (f *fakeAuth) Restore(context.Context) (*wire.User, error) {
	return f.restoreUser, f.restoreErr
}

func (f *fakeAuth) CheckSession(context.Context) (*wire.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return f.checkUser, f.checkErr
}

func (f *fakeAuth) Logout(_ context.Context, everywhere bool) error {
	f.logouts++
	f.everywhere = everywhere
	return f.logoutErr
}

func (f *fakeAuth) ClearSession(context.Context) error {
	f.cleared++
	return nil
}

func (f *fakeAuth) Ping(context.Context) error { return nil }

func (f *fakeAuth) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

// fakeDrive records the last call and serves canned files.
type fakeDrive struct {
	mu sync.Mutex

	view  drive.View
	query string

	files   []drive.File
	err     error
	result  *drive.File
	link    string
	path    string
	written int64

	lastRef  string
	lastDest string
	lastPath string
	resets   int
	loads    int
}

func (d *fakeDrive) State() (drive.View, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.view == "" {
		return drive.ViewAll, d.query
	}
	return d.view, d.query
}

func (d *fakeDrive) Load(_ context.Context, v drive.View, q string) ([]drive.File, error) {
	d.loads++
	if d.err != nil {
		return nil, d.err
	}
	d.mu.Lock()
	d.view, d.query = v, q
	d.mu.Unlock()
	return drive.Filter(d.files, v, q), nil
}

func (d *fakeDrive) Refresh(ctx context.Context) ([]drive.File, error) {
	v, q := d.State()
	return d.Load(ctx, v, q)
}

func (d *fakeDrive) SetView(ctx context.Context, v drive.View) ([]drive.File, error) {
	_, q := d.State()
	return d.Load(ctx, v, q)
}

func (d *fakeDrive) Search(ctx context.Context, q string) ([]drive.File, error) {
	v, _ := d.State()
	return d.Load(ctx, v, q)
}

func (d *fakeDrive) one(ref string) (*drive.File, error) {
	d.lastRef = ref
	return d.result, d.err
}

func (d *fakeDrive) ToggleStar(_ context.Context, ref string) (*drive.File, error) { return d.one(ref) }
func (d *fakeDrive) Share(_ context.Context, ref string) (*drive.File, error)      { return d.one(ref) }
func (d *fakeDrive) Trash(_ context.Context, ref string) (*drive.File, error)      { return d.one(ref) }
func (d *fakeDrive) Restore(_ context.Context, ref string) (*drive.File, error)    { return d.one(ref) }
func (d *fakeDrive) Show(_ context.Context, ref string) (*drive.File, error)       { return d.one(ref) }

func (d *fakeDrive) Upload(_ context.Context, path string) (*drive.File, error) {
	d.lastPath = path
	return d.result, d.err
}

func (d *fakeDrive) Download(_ context.Context, ref, dest string) (string, int64, error) {
	d.lastRef, d.lastDest = ref, dest
	return d.path, d.written, d.err
}

func (d *fakeDrive) Link(_ context.Context, ref string) (string, error) {
	d.lastRef = ref
	return d.link, d.err
}

func (d *fakeDrive) Reset(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resets++
	d.view, d.query = drive.ViewAll, ""
	return nil
}

func (d *fakeDrive) resetCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resets
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApp(auth *fakeAuth, d *fakeDrive, input string) (*App, *syncBuffer) {
	out := &syncBuffer{}
	return &App{
		config: &config.Config{SessionCheckInterval: time.Hour},
		auth:   auth,
		drive:  d,
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    out,
		mode:   ModeLogin,
	}, out
}

func signedIn(t *testing.T, d *fakeDrive) (*App, *fakeAuth, *syncBuffer) {
	t.Helper()
	auth := &fakeAuth{}
	a, out := newTestApp(auth, d, "")
	a.setMode(ModeFiles, "me@example.com")
	return a, auth, out
}

var errUnauthorized = &client.APIError{Status: 401, Code: wire.CodeUnauthorized, Message: "invalid token"}
