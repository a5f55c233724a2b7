package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/ledgerline/ledgerline/internal/tokenstore"
)

// Config describes the OAuth2 application registration for the accounting
// service.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// oauth2Config builds the oauth2 configuration for the given redirect URL.
// The accounting service expects client credentials as body parameters.
func (c Config) oauth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithHTTPClient sets a custom HTTP client for token endpoint requests.
func WithHTTPClient(client *http.Client) RefresherOption {
	return func(r *Refresher) {
		r.httpClient = client
	}
}

// Refresher exchanges a refresh token for a fresh credential pair at the
// token endpoint using the refresh_token grant.
type Refresher struct {
	cfg        Config
	httpClient *http.Client
}

// NewRefresher creates a Refresher for the given registration.
func NewRefresher(cfg Config, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // Bounds the token endpoint round trip
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh performs one refresh_token grant and returns the new credential
// pair. Returns ErrNoRefreshToken if refreshToken is empty. When the token
// endpoint does not rotate the refresh token, the returned pair carries the
// one that was passed in.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (tokenstore.Credential, error) {
	if refreshToken == "" {
		return tokenstore.Credential{}, ErrNoRefreshToken
	}

	// oauth2 picks up the HTTP client from the context (oauth2.HTTPClient key).
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)

	// A token seeded with only a refresh token is always expired, so Token()
	// performs exactly one refresh_token grant.
	seed := &oauth2.Token{RefreshToken: refreshToken}
	tok, err := r.cfg.oauth2Config("").TokenSource(ctx, seed).Token()
	if err != nil {
		return tokenstore.Credential{}, fmt.Errorf("refreshing access token: %w", err)
	}

	return tokenstore.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}, nil
}
