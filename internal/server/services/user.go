// Package services contains server-side business logic. This file implements
// UserService, which handles magic-link login, issuing/refreshing JWTs plus
// server-stored refresh tokens, and sign-out.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/server/auth"
	"github.com/dmitrijs2005/clouddrive/internal/server/config"
	"github.com/dmitrijs2005/clouddrive/internal/server/linkstore"
	"github.com/dmitrijs2005/clouddrive/internal/server/mailer"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides authentication-related operations:
//   - RequestLoginLink: email a one-time sign-in link
//   - VerifyLoginLink: consume the link, create the account on first use and mint tokens
//   - RefreshToken: rotate refresh tokens and mint new access tokens
//   - Logout: revoke refresh tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	links                        linkstore.Store
	mailer                       mailer.Mailer
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	loginLinkTTL                 time.Duration
	appBaseURL                   string
	defaultRedirect              string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, links linkstore.Store, ml mailer.Mailer, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		links:                        links,
		mailer:                       ml,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		loginLinkTTL:                 cfg.LoginLinkTTL,
		appBaseURL:                   strings.TrimRight(cfg.AppBaseURL, "/"),
		defaultRedirect:              cfg.LoginRedirectURL(),
	}
}

// RequestLoginLink stores a fresh one-time token for email and mails a link
// to redirectTo carrying it. An empty redirectTo means the server's own
// callback page. Redirects outside the application base URL are rejected.
func (s *UserService) RequestLoginLink(ctx context.Context, email, redirectTo string) error {
	target, err := s.redirectTarget(redirectTo)
	if err != nil {
		return err
	}

	token, err := common.MakeRandURLToken(32)
	if err != nil {
		return common.ErrorInternal
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.links.Save(ctx, token, email, s.loginLinkTTL); err != nil {
		return fmt.Errorf("error saving login link: %w", err)
	}

	q := target.Query()
	q.Set("token", token)
	target.RawQuery = q.Encode()

	if err := s.mailer.SendLoginLink(ctx, email, target.String(), s.loginLinkTTL); err != nil {
		return fmt.Errorf("error sending login link: %w", err)
	}
	return nil
}

func (s *UserService) redirectTarget(redirectTo string) (*url.URL, error) {
	if redirectTo == "" {
		redirectTo = s.defaultRedirect
	}
	u, err := url.Parse(redirectTo)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("redirect_to %q: %w", redirectTo, common.ErrorValidation)
	}
	if redirectTo != s.appBaseURL && !strings.HasPrefix(redirectTo, s.appBaseURL+"/") {
		return nil, fmt.Errorf("redirect_to %q is outside %s: %w", redirectTo, s.appBaseURL, common.ErrorValidation)
	}
	return u, nil
}

// VerifyLoginLink consumes token and returns the signed-in user with a new
// TokenPair. The account is created on the first successful login.
func (s *UserService) VerifyLoginLink(ctx context.Context, token string) (*models.User, *TokenPair, error) {
	email, err := s.links.Consume(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	var (
		user *models.User
		pair *TokenPair
	)
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).FindOrCreateByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("error finding user: %w", err)
		}
		pair, err = s.generateTokenPair(ctx, user.ID, tx)
		return err
	}); err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expired(now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	return dbx.WithTxResult(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*TokenPair, error) {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return nil, fmt.Errorf("error deleting refresh token: %w", err)
		}
		return s.generateTokenPair(ctx, token.UserID, tx)
	})
}

// Logout revokes refreshToken, or every refresh token of userID when
// everywhere is set. Access tokens stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, userID, refreshToken string, everywhere bool) error {
	repo := s.repomanager.RefreshTokens(s.db)

	if everywhere {
		if _, err := repo.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("error revoking sessions: %w", err)
		}
		return nil
	}

	if refreshToken == "" {
		return nil
	}
	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.UserID != userID {
		return common.ErrorUnauthorized
	}
	if err := repo.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// Session returns the account behind a validated access token. A token whose
// user no longer exists is unauthorized.
func (s *UserService) Session(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// ProbeUsers reads the first page (size 1) of users and returns how many
// rows came back. It backs the database health check.
func (s *UserService) ProbeUsers(ctx context.Context) (int, error) {
	users, err := s.repomanager.Users(s.db).List(ctx, 1, 0)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
