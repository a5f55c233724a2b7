package invoices

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// stubResolver mimics the contact resolver's contract: placeholder for an
// empty id, canned names otherwise.
type stubResolver struct {
	names map[string]string
	calls int
}

func (s *stubResolver) Resolve(ctx context.Context, contactID string) string {
	if contactID == "" {
		return "—"
	}
	s.calls++
	if name, ok := s.names[contactID]; ok {
		return name
	}
	return "id:" + contactID
}

// decodeRecord builds a Record the way the engine does: JSON with UseNumber.
func decodeRecord(t *testing.T, raw string) Record {
	t.Helper()
	var m map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	return Record(m)
}

func TestNormalizePlaceholderRow(t *testing.T) {
	n := NewNormalizer(&stubResolver{})

	rows := n.Normalize(context.Background(), decodeRecord(t, `{
		"id": "inv-1",
		"invoice_number": "INV-001",
		"invoice_date": "2024-03-01",
		"status": "open"
	}`))

	want := []Row{{
		InvoiceNumber: "INV-001",
		Date:          "2024-03-01",
		Customer:      "—",
		Status:        "open",
		Description:   "-",
	}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Normalize() = %+v, want %+v", rows, want)
	}
}

func TestNormalizeEmptyLineItemsAlsoPlaceholder(t *testing.T) {
	n := NewNormalizer(&stubResolver{})

	rows := n.Normalize(context.Background(), decodeRecord(t, `{
		"number": "42", "date": "2024-01-01", "status": "paid", "line_items": []
	}`))

	if len(rows) != 1 || rows[0].Description != "-" || rows[0].UnitPrice != "" || rows[0].LineTotal != "" {
		t.Errorf("Normalize() = %+v, want single placeholder row with empty numerics", rows)
	}
}

func TestNormalizeFieldFallbackOrder(t *testing.T) {
	n := NewNormalizer(&stubResolver{names: map[string]string{"c-1": "Acme"}})

	rows := n.Normalize(context.Background(), decodeRecord(t, `{
		"number": "N-7",
		"date": "2024-06-30",
		"contact_id": "c-1",
		"status": "sent",
		"line_items": [
			{"quantity": null, "qty": 3, "line_amount": null, "amount": 30}
		]
	}`))

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.InvoiceNumber != "N-7" {
		t.Errorf("InvoiceNumber = %q, want N-7 (number fallback)", row.InvoiceNumber)
	}
	if row.Customer != "Acme" {
		t.Errorf("Customer = %q, want Acme", row.Customer)
	}
	if row.Quantity != "3" {
		t.Errorf("Quantity = %q, want 3 (qty fallback past null quantity)", row.Quantity)
	}
	if row.LineTotal != "30.00" {
		t.Errorf("LineTotal = %q, want 30.00 (amount fallback past null line_amount)", row.LineTotal)
	}
	if row.UnitPrice != "10.00" {
		t.Errorf("UnitPrice = %q, want 10.00", row.UnitPrice)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer(&stubResolver{})

	rows := n.Normalize(context.Background(), decodeRecord(t, `{
		"line_items": [{}]
	}`))

	want := Row{
		InvoiceNumber: "-",
		Date:          "-",
		Customer:      "—",
		Status:        "-",
		Description:   "-",
		Quantity:      "1",
		UnitPrice:     "0.00",
		LineTotal:     "0.00",
	}
	if len(rows) != 1 || rows[0] != want {
		t.Errorf("Normalize() = %+v, want %+v", rows, want)
	}
}

func TestNormalizeZeroQuantity(t *testing.T) {
	n := NewNormalizer(&stubResolver{})

	rows := n.Normalize(context.Background(), decodeRecord(t, `{
		"line_items": [{"description": "setup fee", "quantity": 0, "total": "150.5"}]
	}`))

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	// Division by zero is sidestepped: unit price mirrors the line total.
	if rows[0].UnitPrice != "150.50" || rows[0].LineTotal != "150.50" || rows[0].Quantity != "0" {
		t.Errorf("row = %+v, want unit price equal to line total 150.50", rows[0])
	}
}

func TestNormalizeMultipleLineItems(t *testing.T) {
	n := NewNormalizer(&stubResolver{names: map[string]string{"c-2": "Globex"}})

	rows := n.Normalize(context.Background(), decodeRecord(t, `{
		"invoice_number": "INV-9",
		"invoice_date": "2024-02-02",
		"contact": "c-2",
		"status": "open",
		"line_items": [
			{"description": "widgets", "quantity": 4, "line_amount": 100},
			{"name": "shipping", "qty": 1, "total": 12.345}
		]
	}`))

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Description != "widgets" || rows[0].UnitPrice != "25.00" || rows[0].LineTotal != "100.00" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].Description != "shipping" || rows[1].LineTotal != "12.35" || rows[1].UnitPrice != "12.35" {
		t.Errorf("second row = %+v", rows[1])
	}
	for _, row := range rows {
		if row.Customer != "Globex" || row.InvoiceNumber != "INV-9" {
			t.Errorf("invoice fields not carried onto every row: %+v", row)
		}
	}
}
