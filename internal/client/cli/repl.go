package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/clouddrive/internal/client/client"
	"github.com/dmitrijs2005/clouddrive/internal/client/services"
)

// printlnFn and printFn are test seams for user-facing output. In tests,
// replace them with stubs.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Session(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	View(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Star(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Trash(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
	Link(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
}

type usageError string

func (e usageError) Error() string { return "usage: " + string(e) }

const (
	helpSignedOut = `Available commands:
  login [email]            request a magic login link
  verify <token|link>      complete login with the token from the link
  session                  re-check the stored session
  help                     show this help
  exit | quit              leave the program`

	helpSignedIn = `Available commands:
  (l)ist [view] [query]    fetch files; view is all, starred, shared or trash
  view <view>              switch view
  search [query]           filter by name (empty clears)
  upload <path>            upload a local file
  download <id> [dest]     save a file locally
  star <id>                toggle starred
  share <id>               make a file public and print its link
  trash <id>               move a file to trash
  restore <id>             bring a file back from trash
  link <id>                print the public link of a shared file
  show <id>                show a single file
  session                  show the signed-in account
  logout [--everywhere]    sign out
  help                     show this help
  exit | quit              leave the program

<id> is the row number of the last listing, a full id or a unique id prefix.`
)

type command func(e execIface, ctx context.Context, args []string) error

var (
	openCommands = map[string]command{
		"session": execIface.Session,
		"login":   execIface.Login,
		"verify":  execIface.Verify,
	}
	fileCommands = map[string]command{
		"l":        execIface.List,
		"ls":       execIface.List,
		"list":     execIface.List,
		"view":     execIface.View,
		"search":   execIface.Search,
		"upload":   execIface.Upload,
		"download": execIface.Download,
		"star":     execIface.Star,
		"share":    execIface.Share,
		"trash":    execIface.Trash,
		"restore":  execIface.Restore,
		"link":     execIface.Link,
		"show":     execIface.Show,
		"logout":   execIface.Logout,
	}
)

// runREPL starts a simple read–eval–print loop for the cloud drive CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens as arguments.
// File commands require a signed-in session. Errors returned by handlers
// are printed and the loop continues. The loop exits on EOF or when the
// user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printFn(fmt.Sprintf("drive %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			printlnFn()
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		fn, ok := openCommands[cmd]
		if !ok {
			fn, ok = fileCommands[cmd]
			if ok && !a.isLoggedIn() {
				printlnFn("Please log in first: login <email>")
				continue
			}
		}
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err := fn(a, ctx, args); err != nil {
			printlnFn(describe(err))
		}
	}
}

// describe turns a command error into a message for the user.
func describe(err error) string {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return "Usage: " + string(usage)
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, try again later"
	case errors.Is(err, client.ErrLinkExpired):
		return "The login link is invalid or expired, request a new one with 'login'"
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrTokenExpired),
		errors.Is(err, client.ErrNotSignedIn):
		return "Session expired, please log in again"
	case errors.Is(err, services.ErrUnknownFile), errors.Is(err, services.ErrAmbiguousID):
		return "Error: " + err.Error() + " (run 'list' to refresh row numbers)"
	default:
		return "Error: " + err.Error()
	}
}
