// Package export writes transformed documents to standalone files. The HTML
// form is self-contained and mirrors the reader's on-screen styling; the
// bundle form wraps the HTML together with the source text and metadata in
// a tar.xz archive.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/machenxing/bionic/core/bionic"
	"github.com/machenxing/bionic/core/encoding"
	"github.com/machenxing/bionic/core/errors"
	"github.com/machenxing/bionic/internal/settings"
	"github.com/machenxing/bionic/internal/sources"
)

// Theme colors, matching the reader's light and dark palettes.
const (
	lightBackground = "#f0f0f0"
	lightText       = "#4F4F4F"
	darkBackground  = "#1E1E1E"
	darkText        = "#D9D9D9"
)

// htmlMarkup emphasizes with <b> tags and escapes the surrounding text so
// documents stay well formed whatever the source contains.
var htmlMarkup = bionic.Markup{
	Open:   "<b>",
	Close:  "</b>",
	Escape: encoding.EscapeHTML,
}

// WriteHTML writes doc as a standalone HTML page styled by st. The content
// keeps every source character; white-space is preserved so line structure
// survives the round trip into markup.
func WriteHTML(w io.Writer, doc *sources.Document, st settings.Settings) error {
	if doc == nil {
		return errors.NewValidation("document", "nil document")
	}
	st.Clamp()

	background, text := lightBackground, lightText
	if st.DarkMode {
		background, text = darkBackground, darkText
	}

	body := bionic.Transform(doc.Text, st.Ratio(), htmlMarkup)
	title := doc.Title
	if title == "" {
		title = "Document"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", encoding.EscapeHTML(title))
	fmt.Fprintf(&b, "<style>\nbody { background-color: %s; color: %s; margin: 2em; }\n</style>\n", background, text)
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b,
		"<div style='font-size:%dpt; font-family:%s; letter-spacing:%dpx; line-height:%dpx; white-space:pre-wrap;'>",
		st.FontSize, encoding.EscapeHTMLAttr(st.FontFamily), st.LetterSpacing, st.LineSpacing)
	b.WriteString(body)
	b.WriteString("</div>\n</body>\n</html>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.NewIO("write", doc.Path, err)
	}
	return nil
}

// HTML renders doc as a standalone HTML page and returns the bytes.
func HTML(doc *sources.Document, st settings.Settings) ([]byte, error) {
	var b strings.Builder
	if err := WriteHTML(&b, doc, st); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
