package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
)

const selectColumns = `id, user_id, storage_path, name, size, content_type,
		is_starred, is_shared, is_deleted, public_id, public_url, created_at, updated_at`

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*drive.File, error) {
	var (
		f         drive.File
		publicID  sql.NullString
		publicURL sql.NullString
	)
	err := row.Scan(&f.ID, &f.UserID, &f.StoragePath, &f.Name, &f.Size, &f.ContentType,
		&f.IsStarred, &f.IsShared, &f.IsDeleted, &publicID, &publicURL, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if publicID.Valid {
		f.PublicID = &publicID.String
	}
	if publicURL.Valid {
		f.PublicURL = &publicURL.String
	}
	return &f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, f *drive.File) error {
	query := `
		INSERT INTO files (id, user_id, storage_path, name, size, content_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, f.ID, f.UserID, f.StoragePath, f.Name, f.Size, f.ContentType).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]drive.File, error) {
	query := `SELECT ` + selectColumns + ` FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := []drive.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*drive.File, error) {
	query := `SELECT ` + selectColumns + ` FROM files
		WHERE id = $1 AND user_id = $2`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByPublicID(ctx context.Context, publicID string) (*drive.File, error) {
	query := `SELECT ` + selectColumns + ` FROM files
		WHERE public_id = $1 AND is_shared AND NOT is_deleted`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, publicID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) UpdateFlags(ctx context.Context, f *drive.File) error {
	query := `
		UPDATE files
		SET is_starred = $3, is_shared = $4, is_deleted = $5,
			public_id = $6, public_url = $7, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, f.ID, f.UserID,
		f.IsStarred, f.IsShared, f.IsDeleted, f.PublicID, f.PublicURL).Scan(&f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
