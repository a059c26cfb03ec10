// Package common contains shared constants, sentinel errors and small helpers
// used by both the cloud drive server and its CLI client.
package common

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// UserIDContextKey is the echo context key under which the authenticated
// user id is stored by the JWT middleware.
const UserIDContextKey = "user_id"
