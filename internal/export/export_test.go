package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

func sampleRows() []invoices.Row {
	return []invoices.Row{
		{
			InvoiceNumber: "INV-1", Date: "2024-01-01", Customer: "Acme", Status: "open",
			Description: "widgets", UnitPrice: "10.00", Quantity: "2", LineTotal: "20.00",
		},
		{
			InvoiceNumber: "INV-2", Date: "2024-01-02", Customer: "—", Status: "open",
			Description: "-", UnitPrice: "", Quantity: "", LineTotal: "",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.csv")
	if err := WriteCSV(path, sampleRows()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}
	wantHeader := "invoice_number,date,customer,status,description,unit_price,qty,line_total"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Errorf("header = %q, want %q", got, wantHeader)
	}
	if records[1][0] != "INV-1" || records[1][5] != "10.00" {
		t.Errorf("row 1 = %v", records[1])
	}
	// Placeholder rows keep their numeric cells empty.
	if records[2][4] != "-" || records[2][5] != "" || records[2][7] != "" {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestWriteCSVNoRowsWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.csv")
	if err := WriteCSV(path, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("export file should not exist for zero rows (stat err = %v)", err)
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, sampleRows(), Summary{Seen: 5, Kept: 2})

	out := buf.String()
	for _, want := range []string{
		"Invoice No", "INV-1", "widgets", "10.00",
		"Total invoices returned by API (all): 5",
		"Total non-deleted invoices shown: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableNoRows(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, nil, Summary{})

	out := buf.String()
	if strings.Contains(out, "Invoice No") {
		t.Errorf("no table expected for zero rows:\n%s", out)
	}
	if !strings.Contains(out, "Total non-deleted invoices shown: 0") {
		t.Errorf("summary missing:\n%s", out)
	}
}
