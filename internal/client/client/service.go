package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/wire"
)

// TokenListener is told about every token pair the client starts using.
type TokenListener func(ctx context.Context, accessToken, refreshToken string)

type Client interface {
	SetTokens(accessToken, refreshToken string)
	Tokens() (accessToken, refreshToken string)
	OnTokensRefreshed(fn TokenListener)

	Health(ctx context.Context) error

	RequestLoginLink(ctx context.Context, email, redirectTo string) error
	VerifyLoginLink(ctx context.Context, token string) (*wire.TokenResponse, error)
	Session(ctx context.Context) (*wire.User, error)
	Logout(ctx context.Context, everywhere bool) error

	ListFiles(ctx context.Context, view drive.View, query string) ([]drive.File, error)
	GetFile(ctx context.Context, id string) (*drive.File, error)
	UploadFile(ctx context.Context, name string, size int64, open func() (io.ReadCloser, error)) (*drive.File, error)
	DownloadFile(ctx context.Context, id string, w io.Writer) (int64, error)
	ToggleStar(ctx context.Context, id string) (*drive.File, error)
	Share(ctx context.Context, id string) (*drive.File, error)
	Trash(ctx context.Context, id string) (*drive.File, error)
	Restore(ctx context.Context, id string) (*drive.File, error)
}
