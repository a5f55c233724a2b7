// Package apiclient issues authenticated GET requests against the
// accounting API, transparently refreshing the access token once on an
// authorization failure.
package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline/internal/auth"
)

// DefaultTimeout bounds every request round trip.
const DefaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// Client is the authenticated HTTP client for the accounting API.
//
// Relative paths resolve against the configured base URL; absolute URLs are
// used verbatim, which pagination requires because the API hands back full
// URLs as next-page cursors.
type Client struct {
	baseURL   string
	http      *http.Client
	creds     *auth.Credentials
	refresher *auth.Refresher
}

// New creates a Client for the given base URL.
func New(baseURL string, creds *auth.Credentials, refresher *auth.Refresher, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute http(s): %s", baseURL)
	}
	if creds == nil {
		return nil, fmt.Errorf("missing credentials")
	}
	if refresher == nil {
		return nil, fmt.Errorf("missing refresher")
	}

	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		creds:     creds,
		refresher: refresher,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get performs an authenticated GET. On a 401 it refreshes the access token
// exactly once and retries the identical request once; a second 401 is
// returned to the caller as-is. No other status triggers a retry.
//
// The caller owns the response body.
func (c *Client) Get(ctx context.Context, pathOrURL string, query url.Values) (*http.Response, error) {
	target := c.resolve(pathOrURL)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.do(ctx, target)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	_ = resp.Body.Close()

	slog.DebugContext(ctx, "access token rejected, refreshing", "url", target)

	refreshToken, err := c.creds.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	cred, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		// Includes auth.ErrNoRefreshToken, which is fatal for the run.
		return nil, err
	}
	if err := c.creds.ApplyRefresh(ctx, cred.AccessToken, cred.RefreshToken); err != nil {
		return nil, err
	}

	return c.do(ctx, target)
}

// do issues one GET with the current bearer token.
func (c *Client) do(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}

	access, err := c.creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	return resp, nil
}

// resolve joins a relative path to the base URL and passes absolute URLs
// through untouched.
func (c *Client) resolve(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL
}
