// Package pdf extracts plain text from PDF files for ingestion.
package pdf

import (
	"fmt"
	"log"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

// Extractor reads a PDF from disk and returns its text with form feeds
// between pages, which the segmenter treats as structural breaks.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

func (e *Extractor) Extract(path string) (string, error) {
	f, reader, err := lpdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page should not sink the whole document.
			log.Printf("Failed to extract text from page %d of %s: %v", i, path, err)
			continue
		}
		pages = append(pages, text)
	}

	// A scanned (image-only) PDF can legitimately yield no text; the
	// segmenter handles the empty case downstream.
	return strings.Join(pages, "\f"), nil
}
