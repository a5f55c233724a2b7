package tokenstore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore provides read-only access to a credential pair stored in
// environment variables. Suitable for seeding a run with externally managed
// tokens; rotated refresh tokens cannot be written back.
type EnvStore struct {
	accessKey  string
	refreshKey string
}

// Compile-time check to ensure EnvStore implements Store
var _ Store = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore reading the access token from accessKey
// and, when refreshKey is non-empty, the refresh token from refreshKey.
// Returns an error if accessKey is empty or not set in the environment.
func NewEnvStore(accessKey, refreshKey string) (*EnvStore, error) {
	if accessKey == "" {
		return nil, fmt.Errorf("access token environment key cannot be empty")
	}

	if _, exists := os.LookupEnv(accessKey); !exists {
		return nil, fmt.Errorf("environment variable %s not set", accessKey)
	}

	return &EnvStore{
		accessKey:  accessKey,
		refreshKey: refreshKey,
	}, nil
}

// Load returns the credential from the environment. Returns an error if the
// access token variable is empty; a missing refresh token is not an error.
func (e *EnvStore) Load(ctx context.Context) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}

	access := os.Getenv(e.accessKey)
	if access == "" {
		return Credential{}, fmt.Errorf("environment variable %s is empty", e.accessKey)
	}

	cred := Credential{AccessToken: access}
	if e.refreshKey != "" {
		cred.RefreshToken = os.Getenv(e.refreshKey)
	}
	return cred, nil
}

// Save is not supported for environment variables (they are read-only).
func (e *EnvStore) Save(ctx context.Context, cred Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable storage is read-only")
}
