package files

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var fileCols = []string{"id", "user_id", "storage_path", "name", "size", "content_type",
	"is_starred", "is_shared", "is_deleted", "public_id", "public_url", "created_at", "updated_at"}

func fileRow(id string, starred, shared, deleted bool, publicID, publicURL driver.Value, at time.Time) []driver.Value {
	return []driver.Value{id, "u1", "u1/1_" + id + ".txt", id + ".txt", int64(10), "text/plain",
		starred, shared, deleted, publicID, publicURL, at, at}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+files\s*\(id,\s*user_id,\s*storage_path,\s*name,\s*size,\s*content_type\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+created_at,\s*updated_at\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("f1", "u1", "u1/1_a.txt", "a.txt", int64(3), "text/plain").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	f := &drive.File{ID: "f1", UserID: "u1", StoragePath: "u1/1_a.txt", Name: "a.txt", Size: 3, ContentType: "text/plain"}
	require.NoError(t, repo.Create(context.Background(), f))
	assert.True(t, f.CreatedAt.Equal(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+files`).WillReturnError(errors.New("unique violation"))

	err := repo.Create(context.Background(), &drive.File{ID: "f1"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*unique violation`), err.Error())
}

func TestListByUser_OrderedAndNullable(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+files\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*id$`

	now := time.Now()
	rows := sqlmock.NewRows(fileCols).
		AddRow(fileRow("b", false, true, false, "pub", "https://x/s/pub", now)...).
		AddRow(fileRow("a", true, false, false, nil, nil, now.Add(-time.Hour))...)
	mock.ExpectQuery(q).WithArgs("u1").WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].ID)
	require.NotNil(t, got[0].PublicURL)
	assert.Equal(t, "https://x/s/pub", *got[0].PublicURL)
	assert.Equal(t, "a", got[1].ID)
	assert.True(t, got[1].IsStarred)
	assert.Nil(t, got[1].PublicID)
	assert.Nil(t, got[1].PublicURL)
}

func TestListByUser_EmptyIsNotNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+files`).WithArgs("u1").WillReturnRows(sqlmock.NewRows(fileCols))

	got, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByUser_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+files`).WillReturnError(errors.New("db down"))

	_, err := repo.ListByUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select files")
}

func TestGetByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+files\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("a", "u1").
			WillReturnRows(sqlmock.NewRows(fileCols).AddRow(fileRow("a", false, false, true, nil, nil, time.Now())...))

		got, err := repo.GetByID(context.Background(), "u1", "a")
		require.NoError(t, err)
		assert.True(t, got.IsDeleted)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("a", "u2").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "u2", "a")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("a", "u1").WillReturnError(errors.New("boom"))

		_, err := repo.GetByID(context.Background(), "u1", "a")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestGetByPublicID(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+files\s+WHERE\s+public_id\s*=\s*\$1\s+AND\s+is_shared\s+AND\s+NOT\s+is_deleted$`

	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(q).WithArgs("pub").
		WillReturnRows(sqlmock.NewRows(fileCols).AddRow(fileRow("a", false, true, false, "pub", "u", time.Now())...))
	mock.ExpectQuery(q).WithArgs("gone").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByPublicID(context.Background(), "pub")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = repo.GetByPublicID(context.Background(), "gone")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateFlags(t *testing.T) {
	q := `(?s)^\s*UPDATE\s+files\s+SET\s+is_starred\s*=\s*\$3,\s*is_shared\s*=\s*\$4,\s*is_deleted\s*=\s*\$5,\s*public_id\s*=\s*\$6,\s*public_url\s*=\s*\$7,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s+RETURNING\s+updated_at\s*$`

	t.Run("success", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		pid, url := "pub", "https://x/s/pub"
		now := time.Now()
		mock.ExpectQuery(q).
			WithArgs("a", "u1", false, true, false, &pid, &url).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		f := &drive.File{ID: "a", UserID: "u1", IsShared: true, PublicID: &pid, PublicURL: &url}
		require.NoError(t, repo.UpdateFlags(context.Background(), f))
		assert.True(t, f.UpdatedAt.Equal(now))
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)

		err := repo.UpdateFlags(context.Background(), &drive.File{ID: "a", UserID: "u2"})
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}
