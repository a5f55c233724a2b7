package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "ledgerline",
		Usage: "Fetch and export invoices from the accounting API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
		},
		Commands: []*cli.Command{
			fetchCommand(),
			loginCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch all non-deleted invoices and export them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "accounting API base URL",
			},
			&cli.StringFlag{
				Name:  "api--organization",
				Usage: "organization identifier passed to list requests",
			},
			&cli.IntFlag{
				Name:  "api--page-size",
				Usage: "invoices requested per page",
				Value: app.DefaultConfigAPIPageSize,
			},
			&cli.StringFlag{
				Name:  "export--csv",
				Usage: "CSV export path",
				Value: app.DefaultConfigExportCSV,
			},
		},
		Action: fetchAction,
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authorize via the browser and store credentials",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "oauth--client-id",
				Usage: "OAuth2 client identifier",
			},
			&cli.IntFlag{
				Name:  "oauth--redirect-port",
				Usage: "local port for the authorization callback",
				Value: int(app.DefaultConfigOAuthRedirectPort),
			},
		},
		Action: loginAction,
	}
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	application, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.WithoutCancel(ctx)) }()

	if err := application.Fetch(ctx); err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	return nil
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	application, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.WithoutCancel(ctx)) }()

	return application.Login(ctx)
}

// setup loads configuration, instruments logging, and builds the app.
func setup(ctx context.Context, cmd *cli.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	slog.DebugContext(ctx, "configuration loaded",
		"base_url", cfg.API.BaseURL, "page_size", cfg.API.PageSize, "storage", string(cfg.Auth.Storage))
	return application, nil
}
