// Package auth owns the OAuth2 credential pair for a run.
//
// Credentials is the single mutation point for tokens: every reader goes
// through AccessToken and every refresh lands in ApplyRefresh, which
// persists the pair through a tokenstore.Store. Refresher performs the
// refresh_token grant against the token endpoint, and Flow implements the
// one-time interactive authorization-code bootstrap (loopback callback
// server plus browser handoff).
//
// The accounting service speaks standard form-encoded OAuth2 with the
// client id and secret sent as body parameters, so endpoints and scopes
// are plain configuration rather than provider-specific constants.
package auth
