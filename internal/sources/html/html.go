// Package html provides the HTML source extractor. Documents must be
// well-formed markup (XHTML, or the HTML this tool exports itself); text is
// collected from body text nodes, skipping script and style content.
package html

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/machenxing/bionic/core/errors"
	"github.com/machenxing/bionic/internal/logging"
	"github.com/machenxing/bionic/internal/sources"
)

// Extractor handles .html and .htm files.
type Extractor struct{}

func init() {
	sources.Register(&Extractor{})
}

// Format implements sources.Extractor.
func (e *Extractor) Format() string { return "html" }

// Detect implements sources.Extractor.
func (e *Extractor) Detect(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

// Extract implements sources.Extractor.
func (e *Extractor) Extract(path string, _ sources.Options) (*sources.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return nil, &errors.ParseError{Format: "HTML", Path: path, Message: err.Error(), Err: err}
	}

	title := sources.TitleFromPath(path)
	if node := xmlquery.FindOne(doc, "//title"); node != nil {
		if t := strings.TrimSpace(node.InnerText()); t != "" {
			title = t
		}
	}

	// Prefer body content; fall back to the whole document for fragments.
	scope := "//body"
	if xmlquery.FindOne(doc, scope) == nil {
		scope = ""
	}
	nodes := xmlquery.Find(doc, scope+"//text()[not(ancestor::script) and not(ancestor::style)]")

	var b strings.Builder
	for _, n := range nodes {
		text := n.Data
		if strings.TrimSpace(text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimSpace(text))
	}

	result := &sources.Document{
		Title:  title,
		Path:   path,
		Format: "html",
		Text:   b.String(),
	}
	logging.DocumentLoaded(path, "html", len(result.Text))
	return result, nil
}
