package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore provides OS-native secure credential storage.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
// The credential pair is stored as a single JSON secret.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore for the OS-native credential storage
// using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Load returns the credential from the system keyring. Returns an error if
// not found, not decodable, or holding no access token.
func (k *KeyringStore) Load(ctx context.Context) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}

	secret, err := keyring.Get(k.service, k.user)
	if err != nil {
		return Credential{}, err
	}

	var cred Credential
	if err := json.Unmarshal([]byte(secret), &cred); err != nil {
		return Credential{}, fmt.Errorf("decoding keyring secret for service %s, user %s: %w", k.service, k.user, err)
	}
	if cred.AccessToken == "" {
		return Credential{}, fmt.Errorf("no access token in keyring for service %s, user %s", k.service, k.user)
	}

	return cred, nil
}

// Save persists the credential to the system keyring, overwriting any
// existing value.
func (k *KeyringStore) Save(ctx context.Context, cred Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	return keyring.Set(k.service, k.user, string(data))
}
