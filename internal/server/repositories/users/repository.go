// Package users declares the account repository and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/clouddrive/internal/server/models"
)

type Repository interface {
	// FindOrCreateByEmail returns the account for email, creating it on first use.
	FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// List returns up to limit accounts ordered by creation time.
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}
