package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/client/client"
	"github.com/dmitrijs2005/clouddrive/internal/client/config"
	"github.com/dmitrijs2005/clouddrive/internal/client/services"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/wire"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeLogin Mode = "login"
	ModeFiles Mode = "files"
)

// sessionCheckTimeout bounds one watcher round trip.
const sessionCheckTimeout = 5 * time.Second

// driveService is the part of services.DriveService the commands use.
type driveService interface {
	State() (drive.View, string)
	Load(ctx context.Context, v drive.View, query string) ([]drive.File, error)
	Refresh(ctx context.Context) ([]drive.File, error)
	SetView(ctx context.Context, v drive.View) ([]drive.File, error)
	Search(ctx context.Context, query string) ([]drive.File, error)
	ToggleStar(ctx context.Context, ref string) (*drive.File, error)
	Share(ctx context.Context, ref string) (*drive.File, error)
	Trash(ctx context.Context, ref string) (*drive.File, error)
	Restore(ctx context.Context, ref string) (*drive.File, error)
	Show(ctx context.Context, ref string) (*drive.File, error)
	Upload(ctx context.Context, path string) (*drive.File, error)
	Download(ctx context.Context, ref, dest string) (string, int64, error)
	Link(ctx context.Context, ref string) (string, error)
	Reset(ctx context.Context) error
}

type App struct {
	config *config.Config
	auth   services.AuthService
	drive  driveService
	db     *sql.DB
	reader *bufio.Reader
	out    io.Writer

	mu    sync.Mutex
	mode  Mode
	email string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionDBPath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient := client.NewHTTPClient(c.ServerBaseURL)

	as := services.NewAuthService(apiClient, db)
	ds := services.NewDriveService(apiClient, db, c.DownloadDir)

	return &App{
		config: c,
		auth:   as,
		drive:  ds,
		db:     db,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		mode:   ModeLogin,
	}, nil
}

// Run resolves the stored session, starts the session watcher and blocks in
// the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	fmt.Fprintln(a.out, "Cloud drive CLI (type 'help' for commands)")

	a.Gate(ctx)

	go a.StartSessionWatcher(ctx, a.config.SessionCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}
}

func (a *App) setMode(mode Mode, email string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode, a.email = mode, email
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode == ModeFiles
}

func (a *App) getStatus() string {
	a.mu.Lock()
	mode, email := a.mode, a.email
	a.mu.Unlock()

	if mode != ModeFiles {
		return "(signed out)"
	}
	v, q := a.drive.State()
	if q != "" {
		return fmt.Sprintf("(%s %s %q)", email, v, q)
	}
	return fmt.Sprintf("(%s %s)", email, v)
}

// Gate routes to the file view when the stored session is valid and to the
// login view otherwise.
func (a *App) Gate(ctx context.Context) {
	u, err := a.auth.Restore(ctx)
	switch {
	case err == nil:
		a.enterFiles(ctx, u)
	case errors.Is(err, client.ErrNotSignedIn):
		a.setMode(ModeLogin, "")
		fmt.Fprintln(a.out, "Not signed in. Run 'login <email>' to get a login link.")
	case errors.Is(err, client.ErrUnauthorized):
		a.setMode(ModeLogin, "")
		fmt.Fprintln(a.out, "Session expired, please log in again.")
	default:
		a.setMode(ModeLogin, "")
		fmt.Fprintln(a.out, describe(err))
		fmt.Fprintln(a.out, "Run 'session' to retry.")
	}
}

func (a *App) enterFiles(ctx context.Context, u *wire.User) {
	a.setMode(ModeFiles, u.Email)
	fmt.Fprintf(a.out, "Logged in as %s\n", u.Email)

	files, err := a.drive.Load(ctx, drive.ViewAll, "")
	if err != nil {
		fmt.Fprintln(a.out, describe(a.check(ctx, err)))
		return
	}
	a.printFiles(files)
}

// signedOut drops local file state and returns to the login view.
func (a *App) signedOut(ctx context.Context, msg string) {
	a.setMode(ModeLogin, "")
	if err := a.drive.Reset(ctx); err != nil {
		log.Printf("error clearing local files: %v", err)
	}
	if msg != "" {
		fmt.Fprintln(a.out, msg)
	}
}

// check reverts to the login view when err says the session is gone.
func (a *App) check(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNotSignedIn) {
		if clearErr := a.auth.ClearSession(ctx); clearErr != nil {
			log.Printf("error clearing session: %v", clearErr)
		}
		a.signedOut(ctx, "")
	}
	return err
}

// StartSessionWatcher polls the session every interval while signed in and
// reverts to the login view when the server rejects it. Transport errors are
// ignored until the next tick.
func (a *App) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkSession(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkSession(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, sessionCheckTimeout)
	_, err := a.auth.CheckSession(cctx)
	cancel()

	if errors.Is(err, client.ErrUnauthorized) {
		a.signedOut(ctx, "\nSession ended, please log in again.")
	}
}
