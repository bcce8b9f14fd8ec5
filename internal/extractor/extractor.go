// Package extractor converts raw document blobs into plain text,
// dispatching on the blob key's file extension.
package extractor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor converts raw document bytes into plain text.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of a document blob. Keys ending in
// .pdf are parsed as PDF with pages concatenated in reading order,
// separated by newlines; everything else is decoded as UTF-8 verbatim.
// Malformed PDF bytes return an error wrapping domain.ErrExtraction.
func (e *Extractor) Extract(blob []byte, key string) (string, error) {
	if strings.EqualFold(filepath.Ext(key), ".pdf") {
		return extractPDF(blob)
	}
	return string(blob), nil
}

func extractPDF(blob []byte) (text string, err error) {
	// The pdf library panics on some malformed files; convert that into
	// an extraction error so the worker can mark the document FAILED.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", domain.ErrExtraction, i, err)
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n"), nil
}
