// Package app wires configuration into the invoice pipeline and drives
// the two top-level operations: interactive login and the fetch run.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ledgerline/ledgerline/internal/apiclient"
	"github.com/ledgerline/ledgerline/internal/auth"
	"github.com/ledgerline/ledgerline/internal/contacts"
	"github.com/ledgerline/ledgerline/internal/export"
	"github.com/ledgerline/ledgerline/internal/invoices"
)

// App orchestrates the invoice fetch pipeline and the login flow.
type App struct {
	cfg    *Config
	creds  *auth.Credentials
	engine *invoices.Engine
}

// New creates a new App instance. No I/O is performed - credential
// loading is deferred to the first request.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	creds, err := auth.NewCredentials(store)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential manager: %w", err)
	}

	refresher := auth.NewRefresher(cfg.oauth())

	client, err := apiclient.New(cfg.API.BaseURL, creds, refresher,
		apiclient.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	normalizer := invoices.NewNormalizer(contacts.NewResolver(client))
	engine := invoices.NewEngine(client, normalizer,
		invoices.WithPageSize(cfg.API.PageSize),
		invoices.WithOrganization(cfg.API.Organization))

	return &App{
		cfg:    cfg,
		creds:  creds,
		engine: engine,
	}, nil
}

// Fetch runs the full pipeline: paginate, filter, normalize, then print
// a table to stdout and write the CSV export. Rows gathered before a
// fatal error are still rendered and exported.
func (a *App) Fetch(ctx context.Context) error {
	result, runErr := a.engine.Run(ctx)

	export.RenderTable(os.Stdout, result.Rows, export.Summary{
		Seen: result.Seen,
		Kept: result.Kept,
	})

	if len(result.Rows) > 0 {
		if err := export.WriteCSV(a.cfg.Export.CSV, result.Rows); err != nil {
			slog.ErrorContext(ctx, "CSV export failed", "path", a.cfg.Export.CSV, "error", err)
			if runErr == nil {
				return err
			}
		} else {
			slog.InfoContext(ctx, "saved CSV export", "path", a.cfg.Export.CSV, "rows", len(result.Rows))
		}
	}

	if runErr != nil {
		return fmt.Errorf("fetch run failed: %w", runErr)
	}
	return nil
}

// Login runs the interactive browser authorization flow and persists
// the resulting credentials.
func (a *App) Login(ctx context.Context) error {
	flow, err := auth.NewFlow(a.cfg.oauth(), a.creds, a.cfg.OAuth.RedirectPort)
	if err != nil {
		return fmt.Errorf("failed to create login flow: %w", err)
	}

	if err := flow.Run(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	slog.InfoContext(ctx, "login complete, credentials stored", "storage", string(a.cfg.Auth.Storage))
	return nil
}

func (c *Config) oauth() auth.Config {
	return auth.Config{
		ClientID:     c.OAuth.ClientID,
		ClientSecret: c.OAuth.ClientSecret,
		AuthURL:      c.OAuth.AuthURL,
		TokenURL:     c.OAuth.TokenURL,
		Scopes:       c.OAuth.Scopes,
	}
}
