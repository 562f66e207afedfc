package invoice

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Line classification patterns. Every pattern is tried on every line; they are
// independent of each other, so a single line may feed several fields.
var (
	// quantity, 8-digit product code, designation, optional 4-token numeric
	// group (the 4th token is the line total), optional tax marker tail
	itemLinePattern = regexp.MustCompile(`^(?:[0-9]+ )?([0-9]{8}) (.*?)( -?[0-9]+\.?[0-9]* -?[0-9]+\.?[0-9]* -?[0-9]+\.?[0-9]* (-?[0-9]+\.?[0-9]*))?( Tx TVA .*)?$`)

	// continuation line of currency-suffixed numeric tokens; the last token is
	// the total of the item line immediately before it
	priceLinePattern = regexp.MustCompile(`^-?[0-9]+\.?[0-9]*(?: €)? -?[0-9]+\.?[0-9]*(?: €)? -?[0-9]+\.?[0-9]* (-?[0-9]+\.?[0-9]*)(?: €)?`)

	totalInlinePattern = regexp.MustCompile(`^Total TTC (-?[0-9]+\.[0-9]+) €$`)
	totalLabelPattern  = regexp.MustCompile(`^Total TTC$`)

	datePattern = regexp.MustCompile(`([0-9]+/[0-9]+/[0-9]+)$`)

	// AVOIR marks a credit note, FACTURE a regular invoice; the identifier is
	// the trailing digit run, an optional DUPLICATA suffix is ignored
	invoiceIDPattern = regexp.MustCompile(`^(AVOIR |FACTURE )(.*?)([0-9]+)( DUPLICATA)?$`)
)

// totalLookback is how many lines above a bare "Total TTC" label the amount
// sits in the split layout.
const totalLookback = 10

// Parser turns extracted invoice page texts into a Record.
//
// The grammar is a best-effort pattern set over a semi-structured document:
// unmatched lines are silently ignored, and for scalar fields the last match
// in document order wins.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new invoice parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse runs a single forward pass over the page texts and returns the
// populated record. It never fails; a document with no recognizable content
// yields a record with every field unknown.
func (p *Parser) Parse(pages []string) *Record {
	rec := &Record{}
	for _, page := range pages {
		p.parsePage(rec, strings.Split(page, "\n"))
	}
	return rec
}

func (p *Parser) parsePage(rec *Record, lines []string) {
	for i, line := range lines {
		p.matchItemLine(rec, line)
		p.matchPriceLine(rec, line)
		p.matchTotalInline(rec, line)
		p.matchTotalLabel(rec, lines, i)
		p.matchDate(rec, line)
		p.matchInvoiceID(rec, line)
	}
}

func (p *Parser) matchItemLine(rec *Record, line string) {
	m := itemLinePattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	item := LineItem{
		Code:        m[1],
		Designation: m[2],
		TotalPrice:  UnknownPrice,
	}
	if m[3] != "" {
		if v, err := strconv.ParseFloat(m[4], 64); err == nil {
			item.TotalPrice = math.Abs(v)
		}
	}
	rec.Items = append(rec.Items, item)
}

// matchPriceLine overwrites the price of the most recently appended item. Some
// layouts split the designation and its amounts onto separate lines, so the
// price arrives after the item was already recorded.
func (p *Parser) matchPriceLine(rec *Record, line string) {
	m := priceLinePattern.FindStringSubmatch(line)
	if m == nil || len(rec.Items) == 0 {
		return
	}
	if v, err := strconv.ParseFloat(m[1], 64); err == nil {
		rec.Items[len(rec.Items)-1].TotalPrice = math.Abs(v)
	}
}

func (p *Parser) matchTotalInline(rec *Record, line string) {
	m := totalInlinePattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	if v, err := strconv.ParseFloat(m[1], 64); err == nil {
		v = math.Abs(v)
		rec.TotalTTC = &v
	}
}

// matchTotalLabel handles the split layout where a bare "Total TTC" label
// appears and the amount sits totalLookback lines earlier on the same page.
// A label too close to the top of the page means the amount is simply not
// there; a non-numeric back-reference is reported but not fatal.
func (p *Parser) matchTotalLabel(rec *Record, lines []string, index int) {
	if !totalLabelPattern.MatchString(lines[index]) {
		return
	}
	ref := index - totalLookback
	if ref < 0 {
		return
	}
	v, err := strconv.ParseFloat(lines[ref], 64)
	if err != nil {
		p.logger.Warn("Invoice has invalid Total TTC amount",
			zap.String("line", lines[ref]))
		return
	}
	v = math.Abs(v)
	rec.TotalTTC = &v
}

func (p *Parser) matchDate(rec *Record, line string) {
	m := datePattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	t, err := time.Parse("2/1/2006", m[1])
	if err != nil {
		// not a real dd/mm/yyyy date, treat as an unmatched line
		return
	}
	rec.IssueDate = t.Format("2006_01_02")
}

func (p *Parser) matchInvoiceID(rec *Record, line string) {
	m := invoiceIDPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	rec.InvoiceID = m[3]
	rec.IsCredit = m[1] == "AVOIR "
}
