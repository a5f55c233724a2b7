package tokenstore

import "context"

// Credential is the persisted access/refresh token pair.
//
// RefreshToken may be empty: some deployments hand out non-refreshable
// access tokens, and the token endpoint does not always rotate the
// refresh token on renewal.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Store loads and saves the credential pair in persistent storage.
//
// Refresh-token rotation requires writable storage.
type Store interface {
	// Load returns the stored credential. Returns an error if the
	// credential is missing or has an empty access token.
	Load(ctx context.Context) (Credential, error)

	// Save persists the credential to storage. Returns an error if the
	// storage backend is read-only (e.g., environment variables) or if
	// the write operation fails.
	Save(ctx context.Context, cred Credential) error
}
