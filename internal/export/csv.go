// Package export renders canonical invoice rows to a console table and a
// CSV file. It performs no network access; its only side effects are file
// and console writes.
package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

// csvHeader is the fixed column order of the export file.
var csvHeader = []string{
	"invoice_number", "date", "customer", "status",
	"description", "unit_price", "qty", "line_total",
}

// WriteCSV writes a header followed by one record per row to path. When
// rows is empty nothing is written and no file is created.
func WriteCSV(path string, rows []invoices.Row) error {
	if len(rows) == 0 {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	_ = w.Write(csvHeader)
	for _, row := range rows {
		_ = w.Write([]string{
			row.InvoiceNumber, row.Date, row.Customer, row.Status,
			row.Description, row.UnitPrice, row.Quantity, row.LineTotal,
		})
	}
	w.Flush()

	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
