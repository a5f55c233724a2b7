package invoices

import (
	"context"

	"github.com/shopspring/decimal"
)

// placeholder fills text fields that have no value in the raw record.
const placeholder = "-"

// Row is the canonical, export-ready representation of one line item, or
// of an invoice without line items. Text fields are never empty (they fall
// back to placeholders); UnitPrice and LineTotal are two-decimal strings
// that are either both present or both empty.
type Row struct {
	InvoiceNumber string
	Date          string
	Customer      string
	Status        string
	Description   string
	UnitPrice     string
	Quantity      string
	LineTotal     string
}

// ContactResolver resolves a customer identifier to a display name.
type ContactResolver interface {
	Resolve(ctx context.Context, contactID string) string
}

// Normalizer maps raw invoice records into export rows.
type Normalizer struct {
	contacts ContactResolver
}

// NewNormalizer creates a Normalizer using the given contact resolver.
func NewNormalizer(contacts ContactResolver) *Normalizer {
	return &Normalizer{contacts: contacts}
}

// Normalize returns one row per line item, or a single placeholder row
// (empty numeric fields) for an invoice without line items. Malformed or
// missing fields never fail; every fallback chain ends in a default.
func (n *Normalizer) Normalize(ctx context.Context, rec Record) []Row {
	base := Row{
		InvoiceNumber: textOr(rec.First("invoice_number", "number")),
		Date:          textOr(rec.First("invoice_date", "date")),
		Customer:      n.contacts.Resolve(ctx, rec.First("contact", "contact_id")),
		Status:        textOr(rec.Status()),
	}

	items := rec.LineItems()
	if len(items) == 0 {
		base.Description = placeholder
		return []Row{base}
	}

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		quantity, ok := item.FirstDecimal("quantity", "qty")
		if !ok {
			quantity = decimal.NewFromInt(1)
		}
		total, ok := item.FirstDecimal("line_amount", "amount", "total")
		if !ok {
			total = decimal.Zero
		}
		unit := total
		if !quantity.IsZero() {
			unit = total.Div(quantity)
		}

		row := base
		row.Description = textOr(item.First("description", "name"))
		row.Quantity = quantity.String()
		row.UnitPrice = unit.StringFixed(2)
		row.LineTotal = total.StringFixed(2)
		rows = append(rows, row)
	}
	return rows
}

func textOr(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
