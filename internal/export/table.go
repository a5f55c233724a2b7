package export

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

// Summary carries the run counters printed under the table.
type Summary struct {
	// Seen counts every record the API returned.
	Seen int
	// Kept counts records that survived the status filter.
	Kept int
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderTable renders rows as a fixed-width console table followed by the
// summary counters. With no rows only the summary is printed.
func RenderTable(w io.Writer, rows []invoices.Row, sum Summary) {
	if len(rows) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Invoice No", "Date", "Customer", "Status", "Description", "Price", "Qty", "Line Total").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		for _, row := range rows {
			t.Row(row.InvoiceNumber, row.Date, row.Customer, row.Status,
				row.Description, row.UnitPrice, row.Quantity, row.LineTotal)
		}
		if width := terminalWidth(w); width > 0 {
			t.Width(width)
		}
		_, _ = fmt.Fprintln(w, t.String())
	}

	_, _ = fmt.Fprintf(w, "Total invoices returned by API (all): %d\n", sum.Seen)
	_, _ = fmt.Fprintf(w, "Total non-deleted invoices shown: %d\n", sum.Kept)
}

// terminalWidth returns the width of w when it is a terminal, 0 otherwise
// (0 lets the table size itself to its content, e.g. under redirection).
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
