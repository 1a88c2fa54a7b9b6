// Package pdf provides the PDF source extractor. Text is pulled page by
// page; a page-range selection limits extraction to part of the document.
package pdf

import (
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/machenxing/bionic/core/errors"
	"github.com/machenxing/bionic/internal/logging"
	"github.com/machenxing/bionic/internal/sources"
)

// Extractor handles .pdf files.
type Extractor struct{}

func init() {
	sources.Register(&Extractor{})
}

// Format implements sources.Extractor.
func (e *Extractor) Format() string { return "pdf" }

// Detect implements sources.Extractor.
func (e *Extractor) Detect(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

// Extract implements sources.Extractor. Pages are joined with newlines, in
// document order. Pages outside opts.Pages are skipped; a nil selection
// extracts every page.
func (e *Extractor) Extract(path string, opts sources.Options) (*sources.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &errors.ParseError{Format: "PDF", Path: path, Message: err.Error(), Err: err}
	}
	defer f.Close()

	total := r.NumPage()
	var b strings.Builder
	for _, pageNum := range opts.Pages.Pages(total) {
		p := r.Page(pageNum)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, errors.Wrapf(err, "extracting text from page %d of %s", pageNum, path)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}

	doc := &sources.Document{
		Title:  sources.TitleFromPath(path),
		Path:   path,
		Format: "pdf",
		Text:   b.String(),
	}
	logging.DocumentLoaded(path, "pdf", len(doc.Text), "pages", total)
	return doc, nil
}
