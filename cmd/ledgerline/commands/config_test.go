package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/app"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
[api]
base_url = "https://api.example.com/v1"
organization = "org-1"
page_size = 25

[oauth]
auth_url = "https://id.example.com/authorize"
token_url = "https://id.example.com/token"
client_id = "client-1"

[auth]
storage = "env"
env_key = "LEDGERLINE_ACCESS_TOKEN"
`)

	cfg, err := loadConfig(path, nil, func() []string { return nil })
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1", cfg.API.BaseURL)
	assert.Equal(t, "org-1", cfg.API.Organization)
	assert.Equal(t, 25, cfg.API.PageSize)
	assert.Equal(t, app.TokenStorageTypeEnv, cfg.Auth.Storage)
	// Untouched fields fall back to defaults.
	assert.Equal(t, "invoices.csv", cfg.Export.CSV)
	assert.Equal(t, app.LogFormatText, cfg.LogFormat)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[api]
base_url = "https://api.example.com/v1"
page_size = 25

[oauth]
auth_url = "https://id.example.com/authorize"
token_url = "https://id.example.com/token"
client_id = "client-1"

[auth]
storage = "env"
env_key = "LEDGERLINE_ACCESS_TOKEN"
`)

	environ := func() []string {
		return []string{
			"LEDGERLINE_API__PAGE_SIZE=100",
			"LEDGERLINE_API__ORGANIZATION=org-from-env",
			"UNRELATED=ignored",
		}
	}

	cfg, err := loadConfig(path, nil, environ)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.API.PageSize)
	assert.Equal(t, "org-from-env", cfg.API.Organization)
	assert.Equal(t, "https://api.example.com/v1", cfg.API.BaseURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig("/nonexistent/config.toml", nil, func() []string { return nil })
	require.Error(t, err)
}

func TestLoadConfigInvalidRejected(t *testing.T) {
	path := writeConfigFile(t, `
[api]
base_url = "not-a-url"

[oauth]
auth_url = "https://id.example.com/authorize"
token_url = "https://id.example.com/token"
client_id = "client-1"

[auth]
storage = "env"
env_key = "LEDGERLINE_ACCESS_TOKEN"
`)

	_, err := loadConfig(path, nil, func() []string { return nil })
	require.Error(t, err)
}
