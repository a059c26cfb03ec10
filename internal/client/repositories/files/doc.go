// Package files keeps a local SQLite copy of the signed-in user's file
// records.
//
// # Overview
//
// The cache holds the last collection fetched from the server, patched with
// every record the server returns after a mutation. Listings are computed
// from it with drive.Filter, so a file moved to trash leaves the current
// view without a re-fetch. Ids given on the command line are resolved
// against it by full id or unique prefix.
//
// Key Types
//
//   - type Repository: contract used by the drive service
//   - type SQLiteRepository: SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	repo := files.NewSQLiteRepository(db)
//	_ = repo.ReplaceAll(ctx, fetched)
//	_ = repo.Upsert(ctx, updated)
//	all, _ := repo.List(ctx)
//
// See also: drive.File for field semantics.
package files
