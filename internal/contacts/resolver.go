// Package contacts resolves customer identifiers to display names.
package contacts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
)

// Unknown is the placeholder shown when an invoice carries no contact.
const Unknown = "—"

// Getter is the part of the API client the resolver needs.
type Getter interface {
	Get(ctx context.Context, pathOrURL string, query url.Values) (*http.Response, error)
}

// Resolver resolves a contact id to a display name, memoizing every
// resolution for the lifetime of a run. The cache is unbounded on purpose:
// contact cardinality is bounded by the invoice set being processed.
//
// Resolution never fails the run; lookups that cannot produce a name fall
// back to "id:<contact_id>".
type Resolver struct {
	client Getter
	cache  map[string]string
}

// NewResolver creates a Resolver backed by the given client.
func NewResolver(client Getter) *Resolver {
	return &Resolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// Resolve returns the display name for contactID. An empty id resolves to
// the Unknown placeholder without a network call.
func (r *Resolver) Resolve(ctx context.Context, contactID string) string {
	if contactID == "" {
		return Unknown
	}
	if name, ok := r.cache[contactID]; ok {
		return name
	}

	name := r.lookup(ctx, contactID)
	r.cache[contactID] = name
	return name
}

func (r *Resolver) lookup(ctx context.Context, contactID string) string {
	fallback := "id:" + contactID

	resp, err := r.client.Get(ctx, "/contacts/"+contactID+"/", nil)
	if err != nil {
		slog.WarnContext(ctx, "contact lookup failed", "contact_id", contactID, "error", err)
		return fallback
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fallback
	}

	var body struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.WarnContext(ctx, "contact response not decodable", "contact_id", contactID, "error", err)
		return fallback
	}

	switch {
	case body.Name != "":
		return body.Name
	case body.DisplayName != "":
		return body.DisplayName
	default:
		return fallback
	}
}
