package drive

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const maxNameLen = 200

// SanitizeName reduces an uploaded file name to a safe object-key segment:
// directory parts are dropped and anything outside letters, digits, '.',
// '-' and '_' becomes '_'.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		out = "file"
	}
	if r := []rune(out); len(r) > maxNameLen {
		out = string(r[len(r)-maxNameLen:])
	}
	return out
}

// StoragePath builds the object key "<userID>/<unixMillis>_<fileID>_<name>".
// The file id keeps keys of uploads with the same name and millisecond apart.
func StoragePath(userID string, at time.Time, fileID, name string) string {
	return fmt.Sprintf("%s/%d_%s_%s", userID, at.UnixMilli(), fileID, SanitizeName(name))
}

// NameFromPath returns the display name encoded in a storage path: the last
// segment with its "<digits>_" prefix and the following file id removed.
func NameFromPath(p string) string {
	base := p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		base = p[i+1:]
	}
	prefix, rest, ok := strings.Cut(base, "_")
	if !ok || prefix == "" || rest == "" {
		return base
	}
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return base
		}
	}
	if id, name, ok := strings.Cut(rest, "_"); ok && name != "" {
		if _, err := uuid.Parse(id); err == nil {
			return name
		}
	}
	return rest
}
