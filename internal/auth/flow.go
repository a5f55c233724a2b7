package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/ledgerline/internal/tokenstore"
)

// DefaultFlowTimeout bounds how long the login flow waits for the user to
// complete authorization in the browser.
const DefaultFlowTimeout = 5 * time.Minute

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithFlowTimeout overrides the authorization wait timeout.
func WithFlowTimeout(d time.Duration) FlowOption {
	return func(f *Flow) {
		f.timeout = d
	}
}

// WithOpenURL overrides how the authorization URL is opened (tests).
func WithOpenURL(open func(url string) error) FlowOption {
	return func(f *Flow) {
		f.openURL = open
	}
}

// WithFlowHTTPClient sets the HTTP client used for the code exchange.
func WithFlowHTTPClient(client *http.Client) FlowOption {
	return func(f *Flow) {
		f.httpClient = client
	}
}

// Flow drives the one-time interactive authorization-code grant: loopback
// callback server, browser handoff, code exchange, credential persistence.
// It is a bootstrap step, not part of the steady-state fetch pipeline.
type Flow struct {
	cfg   Config
	creds *Credentials
	port  uint16

	timeout    time.Duration
	openURL    func(url string) error
	httpClient *http.Client
}

// NewFlow creates a login flow. port 0 picks a free loopback port, which is
// only useful when the provider accepts wildcard loopback redirect URIs.
func NewFlow(cfg Config, creds *Credentials, port uint16, opts ...FlowOption) (*Flow, error) {
	if creds == nil {
		return nil, fmt.Errorf("missing credentials")
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("authorization and token URLs are required for login")
	}

	f := &Flow{
		cfg:     cfg,
		creds:   creds,
		port:    port,
		timeout: DefaultFlowTimeout,
		openURL: openBrowser,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Run executes the flow and blocks until the credential pair is persisted,
// the user-visible timeout elapses, or ctx is done.
func (f *Flow) Run(ctx context.Context) error {
	state := uuid.NewString()
	srv := newCallbackServer(f.port, state)

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	serveErrCh, err := srv.Start(runCtx)
	if err != nil {
		return fmt.Errorf("callback server startup failed: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "callback server shutdown failed", "error", err)
		}
	}()

	conf := f.cfg.oauth2Config(srv.RedirectURL())
	authURL := conf.AuthCodeURL(state)

	slog.InfoContext(runCtx, "waiting for authorization", "url", authURL)
	if err := f.openURL(authURL); err != nil {
		// The URL is already logged; the user can open it by hand.
		slog.WarnContext(runCtx, "could not open browser", "error", err)
	}

	var code string
	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		select {
		case err := <-serveErrCh:
			if err != nil {
				return fmt.Errorf("callback server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})
	g.Go(func() error {
		c, err := srv.Wait(gCtx)
		if err != nil {
			return err
		}
		code = c
		cancel() // release the server monitor
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("authorization did not produce a code")
	}

	octx := context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	tok, err := conf.Exchange(octx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := f.creds.Replace(ctx, tokenstore.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}); err != nil {
		return err
	}

	slog.InfoContext(ctx, "authorization complete, credentials saved")
	return nil
}
