package drive

import (
	"fmt"
	"strings"
)

// View selects a subset of the file collection.
type View string

const (
	ViewAll     View = "all"
	ViewStarred View = "starred"
	ViewShared  View = "shared"
	ViewTrash   View = "trash"
)

// Views lists all views in display order.
var Views = []View{ViewAll, ViewStarred, ViewShared, ViewTrash}

// ParseView maps s to a View. The empty string means ViewAll.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewStarred, ViewShared, ViewTrash:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Matches reports whether f belongs to view v and its name contains query,
// compared case-insensitively. An empty query matches every name.
func Matches(f File, v View, query string) bool {
	if query != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(query)) {
		return false
	}

	switch v {
	case ViewTrash:
		return f.IsDeleted
	case ViewStarred:
		return !f.IsDeleted && f.IsStarred
	case ViewShared:
		return !f.IsDeleted && f.IsShared
	default:
		return !f.IsDeleted
	}
}

// Filter returns the files matching v and query in their original order.
func Filter(files []File, v View, query string) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		if Matches(f, v, query) {
			out = append(out, f)
		}
	}
	return out
}
