package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// TokenStorageType represents the different storage types supported for stored credentials.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat         = LogFormatText
	DefaultConfigAPIPageSize       = 50
	DefaultConfigAPITimeout        = 30 * time.Second
	DefaultConfigOAuthRedirectPort = 3000
	DefaultConfigAuthStorage       = TokenStorageTypeFile
	DefaultConfigExportCSV         = "invoices.csv"
)

// DefaultConfigOAuthScopes are requested during the interactive login flow.
var DefaultConfigOAuthScopes = []string{"invoices.read", "contacts.read"}

// APIConfig holds accounting API configuration.
type APIConfig struct {
	BaseURL      string        `json:"base_url" validate:"required,url"`
	Organization string        `json:"organization,omitempty"`
	PageSize     int           `json:"page_size" validate:"gt=0"`
	Timeout      time.Duration `json:"timeout"`
}

// OAuthConfig holds the OAuth2 application registration.
type OAuthConfig struct {
	AuthURL      string   `json:"auth_url" validate:"required,url"`
	TokenURL     string   `json:"token_url" validate:"required,url"`
	ClientID     string   `json:"client_id" validate:"required"`
	ClientSecret string   `json:"client_secret,omitempty"`
	RedirectPort uint16   `json:"redirect_port"` // Port range 0-65535 handled by uint16 type
	Scopes       []string `json:"scopes,omitempty"`
}

// AuthConfig describes where stored credentials come from.
type AuthConfig struct {
	Storage TokenStorageType `json:"storage" validate:"required,oneof=file env keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File          string `json:"file,omitempty"`            // For file storage: path to credential file
	EnvKey        string `json:"env_key,omitempty"`         // For env storage: access token variable name
	EnvRefreshKey string `json:"env_refresh_key,omitempty"` // For env storage: optional refresh token variable name
	KeyringUser   string `json:"keyring_user,omitempty"`    // For keyring storage: user identifier
}

// NewStore creates a credential store from the authentication configuration.
func (a *AuthConfig) NewStore() (tokenstore.Store, error) {
	switch a.Storage {
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(a.File)
	case TokenStorageTypeEnv:
		return tokenstore.NewEnvStore(a.EnvKey, a.EnvRefreshKey)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore("ledgerline-credentials", a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// ExportConfig holds export destinations.
type ExportConfig struct {
	CSV string `json:"csv"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level   `json:"log_level"`
	LogFormat LogFormat    `json:"log_format" validate:"oneof=text json"`
	API       APIConfig    `json:"api"`
	OAuth     OAuthConfig  `json:"oauth"`
	Auth      AuthConfig   `json:"auth"`
	Export    ExportConfig `json:"export"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = DefaultConfigAPIPageSize
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.OAuth.RedirectPort == 0 {
		c.OAuth.RedirectPort = DefaultConfigOAuthRedirectPort
	}
	if len(c.OAuth.Scopes) == 0 {
		c.OAuth.Scopes = DefaultConfigOAuthScopes
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Export.CSV == "" {
		c.Export.CSV = DefaultConfigExportCSV
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
			}
			c.Auth.File = filepath.Join(configDir, "ledgerline", "credentials")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	case TokenStorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeEnv:
		if c.Auth.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	return nil
}
