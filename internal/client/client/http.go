package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/drive"
	"github.com/dmitrijs2005/clouddrive/internal/wire"
)

const maxErrorBody = 64 << 10

// jsonTimeout bounds one JSON round trip. File transfers are bounded only by
// the caller's context.
var jsonTimeout = 30 * time.Second

// HTTPClient talks to the API server over HTTP. An access token rejected as
// expired is refreshed once and the request is retried.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	onRefresh    TokenListener

	// serializes token refreshes
	refreshMu sync.Mutex
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// newHTTPClientWith is used by tests to plug an httptest client in.
func newHTTPClientWith(baseURL string, hc *http.Client) *HTTPClient {
	c := NewHTTPClient(baseURL)
	c.http = hc
	return c
}

func (c *HTTPClient) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = accessToken, refreshToken
}

func (c *HTTPClient) Tokens() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) OnTokensRefreshed(fn TokenListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

var _ Client = (*HTTPClient)(nil)

type requestBuilder func(ctx context.Context) (*http.Request, error)

func (c *HTTPClient) jsonBuilder(method, path string, in any) requestBuilder {
	return func(ctx context.Context) (*http.Request, error) {
		var body io.Reader
		if in != nil {
			b, err := json.Marshal(in)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			body = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}
}

func (c *HTTPClient) sendOnce(ctx context.Context, build requestBuilder, authed bool) (*http.Response, string, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, "", err
	}

	var access string
	if authed {
		access, _ = c.Tokens()
		if access == "" {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, "", ErrNotSignedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, access, nil
}

// send performs the request and returns a 2xx response. The caller closes
// its body.
func (c *HTTPClient) send(ctx context.Context, build requestBuilder, authed bool) (*http.Response, error) {
	resp, access, err := c.sendOnce(ctx, build, authed)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	apiErr := decodeError(resp)
	if !authed || !errors.Is(apiErr, ErrTokenExpired) {
		return nil, apiErr
	}

	if err := c.refresh(ctx, access); err != nil {
		return nil, err
	}

	resp, _, err = c.sendOnce(ctx, build, authed)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}
	return resp, nil
}

// refresh exchanges the refresh token for a new pair unless another caller
// already replaced the stale access token.
func (c *HTTPClient) refresh(ctx context.Context, staleAccess string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	access, refresh := c.Tokens()
	if access != staleAccess {
		return nil
	}
	if refresh == "" {
		return ErrUnauthorized
	}

	var out wire.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", wire.RefreshRequest{RefreshToken: refresh}, &out, false); err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken, c.refreshToken = out.AccessToken, out.RefreshToken
	listener := c.onRefresh
	c.mu.Unlock()

	if listener != nil {
		listener(ctx, out.AccessToken, out.RefreshToken)
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	ctx, cancel := context.WithTimeout(ctx, jsonTimeout)
	defer cancel()

	resp, err := c.send(ctx, c.jsonBuilder(method, path, in), authed)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body wire.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		if body.Message != "" {
			apiErr.Message = body.Message
		}
	}
	if apiErr.Code == "" && resp.StatusCode == http.StatusUnauthorized {
		apiErr.Code = wire.CodeUnauthorized
	}
	return apiErr
}

func (c *HTTPClient) Health(ctx context.Context) error {
	var out wire.HealthResponse
	return c.doJSON(ctx, http.MethodGet, "/health", nil, &out, false)
}

func (c *HTTPClient) RequestLoginLink(ctx context.Context, email, redirectTo string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/otp", wire.LoginLinkRequest{Email: email, RedirectTo: redirectTo}, nil, false)
}

// VerifyLoginLink spends a login token. On success the client starts using
// the returned token pair.
func (c *HTTPClient) VerifyLoginLink(ctx context.Context, token string) (*wire.TokenResponse, error) {
	var out wire.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/verify", wire.VerifyRequest{Token: token}, &out, false); err != nil {
		return nil, err
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	return &out, nil
}

func (c *HTTPClient) Session(ctx context.Context) (*wire.User, error) {
	var out wire.SessionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/session", nil, &out, true); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the refresh token (or all of them) and forgets the tokens
// locally even when the server call fails.
func (c *HTTPClient) Logout(ctx context.Context, everywhere bool) error {
	_, refresh := c.Tokens()
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", wire.LogoutRequest{RefreshToken: refresh, Everywhere: everywhere}, nil, true)
	c.SetTokens("", "")
	return err
}

func (c *HTTPClient) ListFiles(ctx context.Context, view drive.View, query string) ([]drive.File, error) {
	q := url.Values{}
	q.Set("view", string(view))
	if query != "" {
		q.Set("q", query)
	}

	var out wire.FileListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/files?"+q.Encode(), nil, &out, true); err != nil {
		return nil, err
	}
	if out.Files == nil {
		out.Files = []drive.File{}
	}
	return out.Files, nil
}

func filePath(id string, suffix string) string {
	return "/api/files/" + url.PathEscape(id) + suffix
}

func (c *HTTPClient) GetFile(ctx context.Context, id string) (*drive.File, error) {
	var out drive.File
	if err := c.doJSON(ctx, http.MethodGet, filePath(id, ""), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) fileAction(ctx context.Context, id, action string) (*drive.File, error) {
	var out drive.File
	if err := c.doJSON(ctx, http.MethodPost, filePath(id, "/"+action), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ToggleStar(ctx context.Context, id string) (*drive.File, error) {
	return c.fileAction(ctx, id, "star")
}

func (c *HTTPClient) Share(ctx context.Context, id string) (*drive.File, error) {
	return c.fileAction(ctx, id, "share")
}

func (c *HTTPClient) Trash(ctx context.Context, id string) (*drive.File, error) {
	return c.fileAction(ctx, id, "trash")
}

func (c *HTTPClient) Restore(ctx context.Context, id string) (*drive.File, error) {
	return c.fileAction(ctx, id, "restore")
}

// UploadFile sends one file as the multipart field "file". open is called
// for every attempt so a retried request starts from a fresh reader.
func (c *HTTPClient) UploadFile(ctx context.Context, name string, size int64, open func() (io.ReadCloser, error)) (*drive.File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if _, err := mw.CreateFormFile("file", name); err != nil {
		return nil, err
	}
	headLen := buf.Len()
	if err := mw.Close(); err != nil {
		return nil, err
	}
	head := append([]byte(nil), buf.Bytes()[:headLen]...)
	tail := append([]byte(nil), buf.Bytes()[headLen:]...)
	contentType := mw.FormDataContentType()

	build := func(ctx context.Context) (*http.Request, error) {
		content, err := open()
		if err != nil {
			return nil, err
		}
		body := struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(head), content, bytes.NewReader(tail)), content}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files", body)
		if err != nil {
			_ = content.Close()
			return nil, err
		}
		req.ContentLength = int64(len(head)) + size + int64(len(tail))
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}

	resp, err := c.send(ctx, build, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out drive.File
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// DownloadFile streams the content of file id into w.
func (c *HTTPClient) DownloadFile(ctx context.Context, id string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, c.jsonBuilder(http.MethodGet, filePath(id, "/content"), nil), true)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read content: %w", err)
	}
	return n, nil
}
