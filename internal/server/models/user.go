// Package models defines server-side records persisted in the database that
// are not shared with the client.
package models

import "time"

// User is an account created on first successful magic-link login.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
