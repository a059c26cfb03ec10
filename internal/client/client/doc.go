// Package client contains the client-side building blocks of the cloud
// drive CLI.
//
// # Overview
//
// The package provides:
//  1. The API contract (see the Client interface) used by the CLI services:
//     magic-link login, session lookup and sign-out, and the file operations.
//  2. An HTTP implementation (see HTTPClient) that sends the access token as
//     a bearer header, refreshes an expired access token once per request,
//     and maps error responses to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Error responses are returned as *APIError, which unwraps to one of the
// sentinels (ErrUnauthorized, ErrNotFound, ErrConflict, ...). Transport
// failures wrap ErrUnavailable.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept a
// context.Context and honor cancellation.
package client
