package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dustin/go-humanize"
)

const (
	shortIDLen = 8
	timeLayout = "2006-01-02 15:04"
)

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func flags(f drive.File) string {
	var parts []string
	if f.IsStarred {
		parts = append(parts, "starred")
	}
	if f.IsShared {
		parts = append(parts, "shared")
	}
	if f.IsDeleted {
		parts = append(parts, "trash")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// printFiles writes a numbered table of files. Row numbers are what <id>
// arguments refer to.
func (a *App) printFiles(files []drive.File) {
	v, q := a.drive.State()
	header := fmt.Sprintf("View: %s", v)
	if q != "" {
		header += fmt.Sprintf(", search: %q", q)
	}
	fmt.Fprintf(a.out, "%s (%d files)\n", header, len(files))

	if len(files) == 0 {
		if v == drive.ViewTrash {
			fmt.Fprintln(a.out, "Trash is empty.")
		} else {
			fmt.Fprintln(a.out, "No files.")
		}
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tSIZE\tFLAGS\tCREATED")
	for i, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, shortID(f.ID), f.Name, humanize.IBytes(uint64(f.Size)), flags(f),
			f.CreatedAt.Local().Format(timeLayout))
	}
	_ = tw.Flush()
}

func (a *App) printFile(f *drive.File) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", f.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", f.Name)
	fmt.Fprintf(tw, "Size:\t%s (%d bytes)\n", humanize.IBytes(uint64(f.Size)), f.Size)
	if f.ContentType != "" {
		fmt.Fprintf(tw, "Type:\t%s\n", f.ContentType)
	}
	fmt.Fprintf(tw, "Flags:\t%s\n", flags(*f))
	if link := f.Link(); link != "" {
		fmt.Fprintf(tw, "Link:\t%s\n", link)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", f.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(tw, "Updated:\t%s\n", f.UpdatedAt.Local().Format(timeLayout))
	_ = tw.Flush()
}
