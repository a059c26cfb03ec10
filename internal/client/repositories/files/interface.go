package files

import (
	"context"

	"github.com/dmitrijs2005/clouddrive/internal/drive"
)

// Repository stores drive.File records locally.
type Repository interface {
	// ReplaceAll drops every cached record and stores files instead.
	ReplaceAll(ctx context.Context, files []drive.File) error

	// Upsert inserts or overwrites one record.
	Upsert(ctx context.Context, f *drive.File) error

	// Get returns the record with the given id or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*drive.File, error)

	// FindByPrefix returns the records whose id starts with prefix.
	FindByPrefix(ctx context.Context, prefix string) ([]drive.File, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]drive.File, error)

	// Clear removes every record.
	Clear(ctx context.Context) error
}
