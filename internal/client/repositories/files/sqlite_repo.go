package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
)

const selectColumns = `select id, user_id, storage_path, name, size, content_type,
	is_starred, is_shared, is_deleted, public_id, public_url, created_at, updated_at from files`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, f *drive.File) error {

	query := `INSERT INTO files (id, user_id, storage_path, name, size, content_type,
			is_starred, is_shared, is_deleted, public_id, public_url, created_at, updated_at)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id,
				storage_path = excluded.storage_path,
				name = excluded.name,
				size = excluded.size,
				content_type = excluded.content_type,
				is_starred = excluded.is_starred,
				is_shared = excluded.is_shared,
				is_deleted = excluded.is_deleted,
				public_id = excluded.public_id,
				public_url = excluded.public_url,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.UserID, f.StoragePath, f.Name, f.Size, f.ContentType,
		f.IsStarred, f.IsShared, f.IsDeleted, nullString(f.PublicID), nullString(f.PublicURL),
		f.CreatedAt.UnixNano(), f.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	return nil
}

// ReplaceAll is not transactional by itself; callers pass a *sql.Tx when
// the swap must be atomic.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, files []drive.File) error {
	if err := r.Clear(ctx); err != nil {
		return err
	}
	for i := range files {
		if err := r.Upsert(ctx, &files[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*drive.File, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` where id=?`, id)

	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) FindByPrefix(ctx context.Context, prefix string) ([]drive.File, error) {
	return r.query(ctx, selectColumns+` where substr(id, 1, ?) = ? order by created_at desc, id`, len(prefix), strings.ToLower(prefix))
}

func (r *SQLiteRepository) List(ctx context.Context) ([]drive.File, error) {
	return r.query(ctx, selectColumns+` order by created_at desc, id`)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]drive.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error selecting files: %w", err)
	}
	defer rows.Close()

	result := make([]drive.File, 0)

	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		result = append(result, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*drive.File, error) {
	var (
		f                   drive.File
		publicID, publicURL sql.NullString
		createdAt, updated  int64
	)
	err := s.Scan(&f.ID, &f.UserID, &f.StoragePath, &f.Name, &f.Size, &f.ContentType,
		&f.IsStarred, &f.IsShared, &f.IsDeleted, &publicID, &publicURL, &createdAt, &updated)
	if err != nil {
		return nil, err
	}
	if publicID.Valid {
		f.PublicID = &publicID.String
	}
	if publicURL.Valid {
		f.PublicURL = &publicURL.String
	}
	f.CreatedAt = time.Unix(0, createdAt).UTC()
	f.UpdatedAt = time.Unix(0, updated).UTC()
	return &f, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
