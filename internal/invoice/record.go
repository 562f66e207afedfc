package invoice

// UnknownPrice is the sentinel recorded when an item line carried no numeric
// group and no later price line supplied one. It sorts after every real price.
const UnknownPrice float64 = -1

// LineItem is one purchased product read from the invoice body.
type LineItem struct {
	Code        string  // 8-digit product code
	Designation string  // free-text label, may carry tail noise from mis-split lines
	TotalPrice  float64 // absolute value, UnknownPrice until matched
}

// Record holds every field extracted from a single invoice PDF.
// All fields start unknown; a record with nothing recognized still renders a
// valid filename.
type Record struct {
	Items     []LineItem // document order, only ever grows
	TotalTTC  *float64   // tax-inclusive grand total, nil while unknown
	IssueDate string     // normalized yyyy_mm_dd, empty while unknown
	InvoiceID string     // numeric identifier, empty while unknown
	IsCredit  bool       // true when the identifier marker was the credit-note variant
}
