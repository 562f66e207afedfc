package invoice

import (
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// ErrMalformedDocument reports attachment bytes that cannot be decoded as a
// PDF. Callers skip the document; it is never a recoverable parse condition.
var ErrMalformedDocument = errors.New("malformed document")

// Extractor converts raw PDF bytes into ordered per-page text using mupdf.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new PDF text extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractPages returns the text content of every page in document order.
func (e *Extractor) ExtractPages(data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		e.logger.Error("Unable to read PDF", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			e.logger.Error("Unable to extract page text",
				zap.Int("page", i),
				zap.Error(err))
			return nil, fmt.Errorf("%w: page %d: %v", ErrMalformedDocument, i, err)
		}
		pages = append(pages, text)
	}

	e.logger.Debug("Extracted PDF text", zap.Int("page_count", len(pages)))
	return pages, nil
}
