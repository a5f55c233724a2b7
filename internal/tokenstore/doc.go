// Package tokenstore provides persistent storage abstractions for the
// OAuth credential pair (access token plus optional refresh token).
//
// Supports storage backends with different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Env: Read-only environment variable access (requires external secret management)
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Mem: In-memory storage for tests and throwaway runs
//
// Refresh-token rotation requires writable storage (file, keyring or mem);
// env storage can seed a run but rotated tokens are lost when it ends.
package tokenstore
