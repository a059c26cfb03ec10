// Package services contains application services for the cloud drive CLI.
// This file defines the authentication service: magic-link login, session
// restore and validation, and sign-out with the local session store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/clouddrive/internal/client/client"
	"github.com/dmitrijs2005/clouddrive/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/wire"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyEmail        = "email"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - RequestLoginLink: ask the server to email a sign-in link.
//   - Verify: spend the link token and persist the new session.
//   - Restore: load the stored session and validate it with the server.
//   - CheckSession: validate the current session with the server.
//   - Logout: revoke the session on the server and forget it locally.
//   - ClearSession: forget the stored session without calling the server.
//   - Ping: check server liveness.
//
// Restore and CheckSession report a missing or rejected session as
// client.ErrNotSignedIn or client.ErrUnauthorized.
type AuthService interface {
	RequestLoginLink(ctx context.Context, email string) error
	Verify(ctx context.Context, tokenOrLink string) (*wire.User, error)
	Restore(ctx context.Context) (*wire.User, error)
	CheckSession(ctx context.Context) (*wire.User, error)
	Logout(ctx context.Context, everywhere bool) error
	ClearSession(ctx context.Context) error
	Ping(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client
// and the local metadata table.
type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client and
// DB. Tokens rotated by the client are written back to the DB.
func NewAuthService(c client.Client, db *sql.DB) AuthService {
	a := &authService{client: c, db: db}
	c.OnTokensRefreshed(func(ctx context.Context, accessToken, refreshToken string) {
		// A lost write only means signing in again on the next start.
		_ = a.saveTokens(ctx, accessToken, refreshToken)
	})
	return a
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (a *authService) RequestLoginLink(ctx context.Context, email string) error {
	if err := a.client.RequestLoginLink(ctx, strings.TrimSpace(email), ""); err != nil {
		return fmt.Errorf("login link error: %w", err)
	}
	return nil
}

// ExtractToken accepts either a bare token or a full login link and returns
// the token.
func ExtractToken(tokenOrLink string) (string, error) {
	s := strings.TrimSpace(tokenOrLink)
	if s == "" {
		return "", fmt.Errorf("empty token: %w", client.ErrInvalidInput)
	}
	if !strings.Contains(s, "://") && !strings.Contains(s, "?") {
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", client.ErrInvalidInput)
	}
	token := u.Query().Get("token")
	if token == "" {
		return "", fmt.Errorf("link has no token: %w", client.ErrInvalidInput)
	}
	return token, nil
}

// Verify completes a magic-link login and stores the session.
func (a *authService) Verify(ctx context.Context, tokenOrLink string) (*wire.User, error) {
	token, err := ExtractToken(tokenOrLink)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.VerifyLoginLink(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verify error: %w", err)
	}

	email := ""
	if resp.User != nil {
		email = resp.User.Email
	}
	if err := a.saveSession(ctx, resp.AccessToken, resp.RefreshToken, email); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}

	if resp.User != nil {
		return resp.User, nil
	}
	return a.client.Session(ctx)
}

// saveSession persists the token pair and email in a single transaction.
func (a *authService) saveSession(ctx context.Context, accessToken, refreshToken, email string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)
		if err := repo.Set(ctx, keyAccessToken, []byte(accessToken)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyRefreshToken, []byte(refreshToken)); err != nil {
			return err
		}
		return repo.Set(ctx, keyEmail, []byte(email))
	})
}

func (a *authService) saveTokens(ctx context.Context, accessToken, refreshToken string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)
		if err := repo.Set(ctx, keyAccessToken, []byte(accessToken)); err != nil {
			return err
		}
		return repo.Set(ctx, keyRefreshToken, []byte(refreshToken))
	})
}

// Restore loads the stored tokens into the client and validates them. A
// session the server rejects is removed from the store.
func (a *authService) Restore(ctx context.Context) (*wire.User, error) {
	repo := a.getMetadataRepo(a.db)

	access, err := repo.Get(ctx, keyAccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := repo.Get(ctx, keyRefreshToken)
	if err != nil {
		return nil, err
	}
	if len(access) == 0 && len(refresh) == 0 {
		return nil, client.ErrNotSignedIn
	}

	a.client.SetTokens(string(access), string(refresh))
	return a.CheckSession(ctx)
}

func (a *authService) CheckSession(ctx context.Context) (*wire.User, error) {
	user, err := a.client.Session(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrTokenExpired) {
			if clearErr := a.ClearSession(ctx); clearErr != nil {
				return nil, clearErr
			}
			return nil, fmt.Errorf("session rejected: %w", client.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the session on the server and always clears it locally.
func (a *authService) Logout(ctx context.Context, everywhere bool) error {
	logoutErr := a.client.Logout(ctx, everywhere)
	if err := a.ClearSession(ctx); err != nil {
		return err
	}
	if logoutErr != nil && !errors.Is(logoutErr, client.ErrUnauthorized) && !errors.Is(logoutErr, client.ErrNotSignedIn) {
		return fmt.Errorf("signed out locally, server error: %w", logoutErr)
	}
	return nil
}

// ClearSession wipes the stored session and the client's tokens.
func (a *authService) ClearSession(ctx context.Context) error {
	a.client.SetTokens("", "")
	return a.getMetadataRepo(a.db).Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Health(ctx)
}
