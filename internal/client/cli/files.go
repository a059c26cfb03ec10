package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dustin/go-humanize"
)

// List fetches the collection. With no arguments the current view and query
// are kept; otherwise the first argument selects the view and the rest is
// the query.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) == 0 {
		files, err := a.drive.Refresh(ctx)
		if err != nil {
			return a.check(ctx, err)
		}
		a.printFiles(files)
		return nil
	}

	v, err := drive.ParseView(args[0])
	if err != nil {
		return usageError("list [all|starred|shared|trash] [query]")
	}

	files, err := a.drive.Load(ctx, v, strings.Join(args[1:], " "))
	if err != nil {
		return a.check(ctx, err)
	}
	a.printFiles(files)
	return nil
}

func (a *App) View(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("view <all|starred|shared|trash>")
	}
	v, err := drive.ParseView(args[0])
	if err != nil {
		return usageError("view <all|starred|shared|trash>")
	}

	files, err := a.drive.SetView(ctx, v)
	if err != nil {
		return a.check(ctx, err)
	}
	a.printFiles(files)
	return nil
}

// Search sets the name query. No arguments clear it.
func (a *App) Search(ctx context.Context, args []string) error {
	files, err := a.drive.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return a.check(ctx, err)
	}
	a.printFiles(files)
	return nil
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("upload <path>")
	}
	// paths may contain spaces
	path := strings.Join(args, " ")

	fmt.Fprintf(a.out, "Uploading %s...\n", path)
	f, err := a.drive.Upload(ctx, path)
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintf(a.out, "Uploaded %s (%s) as %s\n", f.Name, humanize.IBytes(uint64(f.Size)), f.ID)
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("download <id> [dest]")
	}
	dest := strings.Join(args[1:], " ")

	path, n, err := a.drive.Download(ctx, args[0], dest)
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintf(a.out, "Saved %s (%s)\n", path, humanize.IBytes(uint64(n)))
	return nil
}

func (a *App) Star(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("star <id>")
	}
	f, err := a.drive.ToggleStar(ctx, args[0])
	if err != nil {
		return a.check(ctx, err)
	}
	if f.IsStarred {
		fmt.Fprintf(a.out, "Starred %s\n", f.Name)
	} else {
		fmt.Fprintf(a.out, "Unstarred %s\n", f.Name)
	}
	return nil
}

func (a *App) Share(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("share <id>")
	}
	f, err := a.drive.Share(ctx, args[0])
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintf(a.out, "Shared %s: %s\n", f.Name, f.Link())
	return nil
}

func (a *App) Trash(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("trash <id>")
	}
	f, err := a.drive.Trash(ctx, args[0])
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintf(a.out, "Moved %s to trash\n", f.Name)
	return nil
}

func (a *App) Restore(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("restore <id>")
	}
	f, err := a.drive.Restore(ctx, args[0])
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintf(a.out, "Restored %s\n", f.Name)
	return nil
}

// Link prints the public URL from the local copy without a round trip.
func (a *App) Link(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("link <id>")
	}
	link, err := a.drive.Link(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, link)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("show <id>")
	}
	f, err := a.drive.Show(ctx, args[0])
	if err != nil {
		return a.check(ctx, err)
	}
	a.printFile(f)
	return nil
}
