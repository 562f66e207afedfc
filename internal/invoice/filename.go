package invoice

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	vendorPrefix        = "Leroy Merlin"
	uncategorizedSuffix = " - @Non catégorisé"
	fileExtension       = ".pdf"

	// at most this many items are listed in the filename
	maxListedItems = 3
)

// Filename renders the canonical filename for a parsed invoice record. It is a
// pure function: the record is not modified and the same record always renders
// the same string.
//
// Layout: vendor prefix, then date, identifier, credit marker and total when
// known, then up to maxListedItems line items sorted by descending price with
// a ", ..." marker when more exist. A record with no date, identifier, credit
// marker or total gets the uncategorized suffix, even when items were found.
func Filename(rec *Record) string {
	var b strings.Builder
	b.WriteString(vendorPrefix)

	if rec.IssueDate != "" {
		b.WriteString(" - ")
		b.WriteString(rec.IssueDate)
	}
	if rec.InvoiceID != "" {
		b.WriteString(" - ")
		b.WriteString(rec.InvoiceID)
	}
	if rec.IsCredit {
		b.WriteString(" - Avoir")
	}
	if rec.TotalTTC != nil {
		b.WriteString(" - ")
		b.WriteString(formatAmount(*rec.TotalTTC))
		b.WriteString("€")
	}

	if len(rec.Items) > 0 {
		items := make([]LineItem, len(rec.Items))
		copy(items, rec.Items)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].TotalPrice > items[j].TotalPrice
		})

		b.WriteString(" (")
		shown := len(items)
		if shown > maxListedItems {
			shown = maxListedItems
		}
		for i := 0; i < shown; i++ {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(items[i].Designation)
			b.WriteString(" - ")
			b.WriteString(formatAmount(items[i].TotalPrice))
			b.WriteString("€")
		}
		if len(items) > maxListedItems {
			b.WriteString(", ...")
		}
		b.WriteString(")")
	}

	if rec.IssueDate == "" && rec.InvoiceID == "" && !rec.IsCredit && rec.TotalTTC == nil {
		b.WriteString(uncategorizedSuffix)
	}

	b.WriteString(fileExtension)
	return b.String()
}

// formatAmount renders an amount the way archived filenames have always
// carried them: fractional values shortest-exact (45.50 becomes "45.5"),
// integral values with one decimal place (20 becomes "20.0"). The
// unknown-price sentinel renders as "-1".
func formatAmount(v float64) string {
	if v == UnknownPrice {
		return "-1"
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
