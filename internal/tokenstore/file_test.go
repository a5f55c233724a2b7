package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "credential")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	want := Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, Credential{AccessToken: "old", RefreshToken: "keep"}))
	require.NoError(t, store.Save(ctx, Credential{AccessToken: "new", RefreshToken: "keep"}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestFileStoreLoadInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, Credential{AccessToken: "a"}))
	require.NoError(t, os.Chmod(path, 0644))

	_, err = store.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure permissions")
}

func TestFileStoreLoadEmptyAccessToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential")
	require.NoError(t, os.WriteFile(path, []byte(`{"refresh_token":"r"}`), 0600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestEnvStoreReadOnly(t *testing.T) {
	t.Setenv("LEDGERLINE_TEST_ACCESS", "env-access")
	t.Setenv("LEDGERLINE_TEST_REFRESH", "env-refresh")

	store, err := NewEnvStore("LEDGERLINE_TEST_ACCESS", "LEDGERLINE_TEST_REFRESH")
	require.NoError(t, err)

	ctx := context.Background()
	cred, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credential{AccessToken: "env-access", RefreshToken: "env-refresh"}, cred)

	assert.Error(t, store.Save(ctx, Credential{AccessToken: "x"}))
}

func TestEnvStoreUnsetVariable(t *testing.T) {
	_, err := NewEnvStore("LEDGERLINE_TEST_DOES_NOT_EXIST", "")
	assert.Error(t, err)
}

func TestMemStoreEmptyUntilSave(t *testing.T) {
	store := NewMemStore(Credential{})
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.Error(t, err)

	require.NoError(t, store.Save(ctx, Credential{AccessToken: "a"}))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)
}
