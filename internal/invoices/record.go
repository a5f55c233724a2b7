// Package invoices implements the paginated invoice retrieval pipeline:
// page-by-page fetching with deduplication-based termination, and
// normalization of heterogeneously named raw records into canonical
// export rows.
package invoices

import (
	"encoding/json"
	"maps"
	"strconv"

	"github.com/shopspring/decimal"
)

// Record is a raw invoice or line item as returned by the remote API.
// Field names vary across API versions (invoice_number vs number,
// line_amount vs amount vs total), so values are read through ordered
// fallback chains that always resolve to a default. Records are read-only
// to this system; Merge returns a copy.
type Record map[string]any

// ID returns the record id, or an empty string when absent.
func (r Record) ID() string {
	return asString(r["id"])
}

// Status returns the raw status string, or an empty string when absent.
func (r Record) Status() string {
	return asString(r["status"])
}

// First returns the first non-empty string value among the named keys.
func (r Record) First(keys ...string) string {
	for _, key := range keys {
		if s := asString(r[key]); s != "" {
			return s
		}
	}
	return ""
}

// FirstDecimal returns the first parseable numeric value among the named
// keys. Null and malformed values are skipped, not errors.
func (r Record) FirstDecimal(keys ...string) (decimal.Decimal, bool) {
	for _, key := range keys {
		if d, ok := asDecimal(r[key]); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

// HasLineItems reports whether the record carries a line_items key at all.
// Listing endpoints omit the key; detail responses include it even when empty.
func (r Record) HasLineItems() bool {
	_, ok := r["line_items"]
	return ok
}

// LineItems returns the line item records, if any.
func (r Record) LineItems() []Record {
	list, ok := r["line_items"].([]any)
	if !ok {
		return nil
	}
	return toRecords(list)
}

// Merge overlays a detail record underneath r: detail values fill keys the
// listing record lacks (or holds empty), listing values win otherwise.
func (r Record) Merge(detail Record) Record {
	merged := make(Record, len(r)+len(detail))
	maps.Copy(merged, r)
	for key, value := range detail {
		if cur, ok := merged[key]; !ok || cur == nil || cur == "" {
			merged[key] = value
		}
	}
	return merged
}

// toRecords converts a decoded JSON array to Records, skipping entries that
// are not objects.
func toRecords(list []any) []Record {
	records := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			records = append(records, Record(m))
		}
	}
	return records
}

// asString renders a scalar JSON value as a string. Collections, booleans
// and nulls resolve to the empty string.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// asDecimal parses a scalar JSON value as a decimal.
func asDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		if n == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Decimal{}, false
	}
}
