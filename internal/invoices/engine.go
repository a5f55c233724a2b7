package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ledgerline/ledgerline/internal/auth"
)

// maxIterations caps one pagination run. Safety valve against pathological
// APIs that keep producing "new" pages forever.
const maxIterations = 500

// droppedStatuses are record statuses excluded from the report.
var droppedStatuses = map[string]struct{}{
	"deleted":  {},
	"delete":   {},
	"archived": {},
}

// Getter is the part of the API client the engine needs.
type Getter interface {
	Get(ctx context.Context, pathOrURL string, query url.Values) (*http.Response, error)
}

// Result is the outcome of one pagination run.
type Result struct {
	// Rows holds the normalized export rows in retrieval order.
	Rows []Row
	// Seen counts every record the API returned, kept or not,
	// including records repeated across pages.
	Seen int
	// Kept counts records that survived the status filter.
	Kept int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPageSize sets the page_size query parameter for page-number fetches.
func WithPageSize(n int) EngineOption {
	return func(e *Engine) {
		e.pageSize = n
	}
}

// WithOrganization scopes page-number fetches to an organization.
func WithOrganization(org string) EngineOption {
	return func(e *Engine) {
		e.organization = org
	}
}

// Engine drives the page-by-page retrieval of the invoice collection,
// deduplicates records across pages and terminates even when the remote
// API produces inconsistent or repeating pages. One request in flight at a
// time; the cursor state needs no synchronization.
type Engine struct {
	client       Getter
	normalizer   *Normalizer
	pageSize     int
	organization string
}

// NewEngine creates an Engine.
func NewEngine(client Getter, normalizer *Normalizer, opts ...EngineOption) *Engine {
	e := &Engine{
		client:     client,
		normalizer: normalizer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pageCursor is the pagination state for one run.
//
// Some API deployments are cursor-driven (absolute next URL), others are
// page-number-driven; a run supports both. prevNextURL guards against a
// cursor that fails to advance, seenIDs against a page that repeats.
type pageCursor struct {
	seenIDs     map[string]struct{}
	nextURL     string
	prevNextURL string
	page        int
}

// Run executes the pagination run. Page-level failures terminate the run
// gracefully: the returned Result always holds every row gathered before
// the failure. The error is non-nil only for fatal conditions
// (auth.ErrNoRefreshToken), and even then the partial Result is valid.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	cur := &pageCursor{
		seenIDs: make(map[string]struct{}),
		page:    1,
	}

	for range maxIterations {
		done, err := e.step(ctx, cur, res)
		if err != nil {
			return res, err
		}
		if done {
			return res, nil
		}
	}

	slog.WarnContext(ctx, "pagination stopped at iteration cap", "iterations", maxIterations)
	return res, nil
}

// step fetches and processes one page. done reports termination; err is
// fatal only.
func (e *Engine) step(ctx context.Context, cur *pageCursor, res *Result) (bool, error) {
	resp, err := e.fetchPage(ctx, cur)
	if err != nil {
		if errors.Is(err, auth.ErrNoRefreshToken) {
			return true, err
		}
		slog.ErrorContext(ctx, "page fetch failed, stopping with partial results",
			"page", cur.page, "error", err)
		return true, nil
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := readSnippet(resp.Body)
		_ = resp.Body.Close()
		slog.ErrorContext(ctx, "remote API error, stopping with partial results",
			"page", cur.page, "status", resp.StatusCode, "body", snippet)
		return true, nil
	}

	var body any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	err = dec.Decode(&body)
	_ = resp.Body.Close()
	if err != nil {
		slog.ErrorContext(ctx, "page not decodable, stopping with partial results",
			"page", cur.page, "error", err)
		return true, nil
	}

	page, next := extractPage(body)
	res.Seen += len(page)

	// Stop when the page brings no ids we haven't seen: the primary defense
	// against an API whose next cursor points back at an already-seen page.
	newIDs := 0
	for _, rec := range page {
		id := rec.ID()
		if _, seen := cur.seenIDs[id]; seen {
			continue
		}
		newIDs++
		if id != "" {
			cur.seenIDs[id] = struct{}{}
		}
	}
	if newIDs == 0 {
		return true, nil
	}

	for _, rec := range page {
		if isDropped(rec.Status()) {
			continue
		}
		rec = e.enrich(ctx, rec)
		// The listing may omit the status; re-check against the detail.
		if isDropped(rec.Status()) {
			continue
		}
		res.Kept++
		res.Rows = append(res.Rows, e.normalizer.Normalize(ctx, rec)...)
	}

	// Advance. A cursor identical to the previous one would fetch the same
	// page forever; treat it as the end.
	if next != "" {
		if next == cur.prevNextURL {
			return true, nil
		}
		cur.prevNextURL = next
		cur.nextURL = next
		return false, nil
	}
	cur.page++
	cur.nextURL = ""
	return false, nil
}

// fetchPage requests the next page: by cursor URL when one is held,
// otherwise by page number against the listing endpoint.
func (e *Engine) fetchPage(ctx context.Context, cur *pageCursor) (*http.Response, error) {
	if cur.nextURL != "" {
		return e.client.Get(ctx, cur.nextURL, nil)
	}

	query := url.Values{"page": {strconv.Itoa(cur.page)}}
	if e.pageSize > 0 {
		query.Set("page_size", strconv.Itoa(e.pageSize))
	}
	if e.organization != "" {
		query.Set("organization", e.organization)
	}
	return e.client.Get(ctx, "/invoices/", query)
}

// enrich fetches the invoice detail when the listing record carries no
// line_items key and merges it underneath the listing fields. A failed
// detail fetch degrades to the listing record alone.
func (e *Engine) enrich(ctx context.Context, rec Record) Record {
	if rec.HasLineItems() {
		return rec
	}
	id := rec.ID()
	if id == "" {
		return rec
	}

	resp, err := e.client.Get(ctx, "/invoices/"+id+"/", nil)
	if err != nil {
		slog.WarnContext(ctx, "invoice detail fetch failed", "invoice_id", id, "error", err)
		return rec
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rec
	}

	var detail map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&detail); err != nil {
		slog.WarnContext(ctx, "invoice detail not decodable", "invoice_id", id, "error", err)
		return rec
	}
	return rec.Merge(Record(detail))
}

// extractPage pulls the invoice collection and the next-page cursor out of
// a decoded response body. The collection lives under a results key, an
// invoices key, or is the body itself.
func extractPage(body any) ([]Record, string) {
	switch b := body.(type) {
	case map[string]any:
		next := asString(b["next"])
		for _, key := range []string{"results", "invoices"} {
			if list, ok := b[key].([]any); ok && len(list) > 0 {
				return toRecords(list), next
			}
		}
		return nil, next
	case []any:
		return toRecords(b), ""
	default:
		return nil, ""
	}
}

func isDropped(status string) bool {
	_, ok := droppedStatuses[strings.ToLower(status)]
	return ok
}

// readSnippet returns the leading bytes of an error body for logging.
func readSnippet(r io.Reader) string {
	buf, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(buf)
}
