package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ledgerline/ledgerline/internal/tokenstore"
)

// ErrNoRefreshToken is returned when a token refresh is attempted while no
// refresh token is held. This is fatal for a run: recovery requires the
// interactive login flow.
var ErrNoRefreshToken = errors.New("no refresh token held")

// Credentials owns the in-memory credential pair and persists updates
// through a tokenstore.Store. No other component mutates the pair.
// Loading is deferred to the first accessor call to avoid I/O during
// application startup.
type Credentials struct {
	store tokenstore.Store

	mu     sync.Mutex
	cred   tokenstore.Credential
	loaded bool
}

// NewCredentials creates Credentials backed by the given store.
// No I/O is performed until the first accessor call.
func NewCredentials(store tokenstore.Store) (*Credentials, error) {
	if store == nil {
		return nil, fmt.Errorf("missing token store")
	}
	return &Credentials{store: store}, nil
}

// ensureLoaded performs the one-time initial load. Callers hold c.mu.
func (c *Credentials) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	cred, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading stored credential: %w", err)
	}
	c.cred = cred
	c.loaded = true
	return nil
}

// AccessToken returns the current access token.
func (c *Credentials) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return "", err
	}
	return c.cred.AccessToken, nil
}

// RefreshToken returns the current refresh token, which may be empty.
func (c *Credentials) RefreshToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return "", err
	}
	return c.cred.RefreshToken, nil
}

// ApplyRefresh replaces the access token and, only when newRefreshToken is
// non-empty, the refresh token (token endpoints do not always rotate it).
// The updated pair is persisted as a side effect; a persistence failure is
// logged rather than returned because the in-memory tokens remain valid
// for the rest of the run.
func (c *Credentials) ApplyRefresh(ctx context.Context, newAccessToken, newRefreshToken string) error {
	if newAccessToken == "" {
		return fmt.Errorf("refresh produced an empty access token")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	c.cred.AccessToken = newAccessToken
	if newRefreshToken != "" {
		c.cred.RefreshToken = newRefreshToken
	}

	if err := c.store.Save(ctx, c.cred); err != nil {
		// Future refreshes in later runs will fail without the persisted
		// pair, but this run can keep going.
		slog.ErrorContext(ctx, "failed to persist refreshed credential", "error", err)
	}
	return nil
}

// Replace installs a brand-new credential pair and persists it. Used by the
// login flow, where no prior credential may exist; unlike ApplyRefresh a
// persistence failure is returned because losing a freshly authorized pair
// defeats the point of logging in.
func (c *Credentials) Replace(ctx context.Context, cred tokenstore.Credential) error {
	if cred.AccessToken == "" {
		return fmt.Errorf("credential has no access token")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cred = cred
	c.loaded = true

	if err := c.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("persisting credential: %w", err)
	}
	return nil
}
