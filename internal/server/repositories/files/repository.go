// Package files stores file metadata rows. Every read and write except the
// public-link lookup is scoped by the owning user id.
package files

import (
	"context"

	"github.com/dmitrijs2005/clouddrive/internal/drive"
)

type Repository interface {
	// Create inserts f and fills its timestamps.
	Create(ctx context.Context, f *drive.File) error
	// ListByUser returns all files of userID, newest first.
	ListByUser(ctx context.Context, userID string) ([]drive.File, error)
	GetByID(ctx context.Context, userID, id string) (*drive.File, error)
	// GetByPublicID returns a shared, non-deleted file by its public id.
	GetByPublicID(ctx context.Context, publicID string) (*drive.File, error)
	// UpdateFlags persists the starred/shared/deleted flags and the public
	// link of f and refreshes its UpdatedAt.
	UpdateFlags(ctx context.Context, f *drive.File) error
}
