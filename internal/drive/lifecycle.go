package drive

import (
	"fmt"

	"github.com/dmitrijs2005/clouddrive/internal/common"
)

// ToggleStar flips the starred flag of a live file.
func ToggleStar(f File) (File, error) {
	if f.IsDeleted {
		return f, fmt.Errorf("star %s: file is in trash: %w", f.ID, common.ErrInvalidTransition)
	}
	f.IsStarred = !f.IsStarred
	return f, nil
}

// Share marks a live file public with the given id and URL. A file that is
// already shared keeps its existing link and is returned unchanged.
func Share(f File, publicID, publicURL string) (File, error) {
	if f.IsDeleted {
		return f, fmt.Errorf("share %s: file is in trash: %w", f.ID, common.ErrInvalidTransition)
	}
	if f.IsShared {
		return f, nil
	}
	f.IsShared = true
	f.PublicID = &publicID
	f.PublicURL = &publicURL
	return f, nil
}

// Trash soft-deletes a file. Starred and shared flags are cleared together
// with the public link.
func Trash(f File) (File, error) {
	if f.IsDeleted {
		return f, fmt.Errorf("trash %s: already in trash: %w", f.ID, common.ErrInvalidTransition)
	}
	f.IsDeleted = true
	f.IsStarred = false
	f.IsShared = false
	f.PublicID = nil
	f.PublicURL = nil
	return f, nil
}

// Restore brings a trashed file back. Only the deleted flag changes.
func Restore(f File) (File, error) {
	if !f.IsDeleted {
		return f, fmt.Errorf("restore %s: not in trash: %w", f.ID, common.ErrInvalidTransition)
	}
	f.IsDeleted = false
	return f, nil
}

// Downloadable reports whether the content of f may be served.
func Downloadable(f File) error {
	if f.IsDeleted {
		return fmt.Errorf("download %s: file is in trash: %w", f.ID, common.ErrInvalidTransition)
	}
	return nil
}
