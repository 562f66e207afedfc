package invoice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestFilename_AllFieldsUnknown(t *testing.T) {
	assert.Equal(t, "Leroy Merlin - @Non catégorisé.pdf", Filename(&Record{}))
}

func TestFilename_AllFieldsKnown(t *testing.T) {
	rec := &Record{
		Items: []LineItem{
			{Code: "12345678", Designation: "Perceuse", TotalPrice: 129.9},
		},
		TotalTTC:  floatPtr(129.9),
		IssueDate: "2022_11_03",
		InvoiceID: "31415",
	}

	assert.Equal(t,
		"Leroy Merlin - 2022_11_03 - 31415 - 129.9€ (Perceuse - 129.9€).pdf",
		Filename(rec))
}

func TestFilename_CreditNote(t *testing.T) {
	rec := &Record{
		IssueDate: "2023_01_15",
		InvoiceID: "000999",
		IsCredit:  true,
		TotalTTC:  floatPtr(12),
	}

	assert.Equal(t,
		"Leroy Merlin - 2023_01_15 - 000999 - Avoir - 12.0€.pdf",
		Filename(rec))
}

func TestFilename_ItemsSortedByDescendingPrice(t *testing.T) {
	rec := &Record{
		TotalTTC: floatPtr(28),
		Items: []LineItem{
			{Designation: "A", TotalPrice: 5},
			{Designation: "B", TotalPrice: 20},
			{Designation: "C", TotalPrice: 1},
			{Designation: "D", TotalPrice: 2},
		},
	}

	assert.Equal(t,
		"Leroy Merlin - 28.0€ (B - 20.0€ | A - 5.0€ | D - 2.0€, ...).pdf",
		Filename(rec))
}

func TestFilename_TruncationMarker(t *testing.T) {
	tests := []struct {
		name       string
		itemCount  int
		wantShown  int
		wantMarker bool
	}{
		{"one item", 1, 1, false},
		{"three items", 3, 3, false},
		{"four items", 4, 3, true},
		{"ten items", 10, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Record{TotalTTC: floatPtr(1)}
			for i := 0; i < tt.itemCount; i++ {
				rec.Items = append(rec.Items, LineItem{Designation: "X", TotalPrice: float64(i)})
			}

			name := Filename(rec)
			assert.Equal(t, tt.wantShown, strings.Count(name, "X - "))
			assert.Equal(t, tt.wantMarker, strings.Contains(name, ", ...)"))
		})
	}
}

func TestFilename_UnknownPriceSortsLast(t *testing.T) {
	rec := &Record{
		TotalTTC: floatPtr(10),
		Items: []LineItem{
			{Designation: "Unpriced", TotalPrice: UnknownPrice},
			{Designation: "Cheap", TotalPrice: 0.5},
		},
	}

	assert.Equal(t,
		"Leroy Merlin - 10.0€ (Cheap - 0.5€ | Unpriced - -1€).pdf",
		Filename(rec))
}

func TestFilename_EqualPricesKeepDocumentOrder(t *testing.T) {
	rec := &Record{
		TotalTTC: floatPtr(10),
		Items: []LineItem{
			{Designation: "First", TotalPrice: 5},
			{Designation: "Second", TotalPrice: 5},
		},
	}

	assert.Equal(t,
		"Leroy Merlin - 10.0€ (First - 5.0€ | Second - 5.0€).pdf",
		Filename(rec))
}

// A record with items but no scalar field gets both the item list and the
// uncategorized marker.
func TestFilename_ItemsWithoutScalarFields(t *testing.T) {
	rec := &Record{
		Items: []LineItem{{Designation: "Drill", TotalPrice: UnknownPrice}},
	}

	assert.Equal(t,
		"Leroy Merlin (Drill - -1€) - @Non catégorisé.pdf",
		Filename(rec))
}

func TestFilename_Idempotent(t *testing.T) {
	rec := &Record{
		InvoiceID: "42",
		Items: []LineItem{
			{Designation: "B", TotalPrice: 2},
			{Designation: "A", TotalPrice: 7},
		},
	}

	first := Filename(rec)
	second := Filename(rec)
	assert.Equal(t, first, second)
}

func TestFilename_DoesNotMutateRecord(t *testing.T) {
	rec := &Record{
		Items: []LineItem{
			{Designation: "B", TotalPrice: 2},
			{Designation: "A", TotalPrice: 7},
		},
	}

	Filename(rec)

	require.Len(t, rec.Items, 2)
	assert.Equal(t, "B", rec.Items[0].Designation)
	assert.Equal(t, "A", rec.Items[1].Designation)
}

// Integral amounts keep one decimal place in rendered filenames.
func TestFilename_IntegralAmountsKeepDecimalPlace(t *testing.T) {
	rec := &Record{
		TotalTTC: floatPtr(20),
		Items: []LineItem{
			{Designation: "Drill", TotalPrice: 36},
		},
	}

	assert.Equal(t, "Leroy Merlin - 20.0€ (Drill - 36.0€).pdf", Filename(rec))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "45.5", formatAmount(45.5))
	assert.Equal(t, "-1", formatAmount(UnknownPrice))
	assert.Equal(t, "100.0", formatAmount(100))
	assert.Equal(t, "20.0", formatAmount(20))
	assert.Equal(t, "0.5", formatAmount(0.5))
	assert.Equal(t, "0.0", formatAmount(0))
}
