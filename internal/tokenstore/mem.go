package tokenstore

import (
	"context"
	"fmt"
	"sync"
)

// MemStore holds a credential pair in memory. Nothing survives the process;
// intended for tests and one-off runs seeded from flags.
type MemStore struct {
	mu   sync.Mutex
	cred Credential
	set  bool
}

// Compile-time check to ensure MemStore implements Store
var _ Store = (*MemStore)(nil)

// NewMemStore creates a MemStore. If seed holds an access token the store
// starts populated, otherwise the first Load fails until Save is called.
func NewMemStore(seed Credential) *MemStore {
	return &MemStore{
		cred: seed,
		set:  seed.AccessToken != "",
	}
}

// Load returns the in-memory credential.
func (m *MemStore) Load(ctx context.Context) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return Credential{}, fmt.Errorf("no credential stored")
	}
	return m.cred, nil
}

// Save replaces the in-memory credential.
func (m *MemStore) Save(ctx context.Context, cred Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = cred
	m.set = true
	return nil
}
