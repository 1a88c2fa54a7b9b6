// Package encoding provides shared text escaping utilities for markup output.
package encoding

import "strings"

// EscapeHTML escapes special characters for HTML content.
// Escapes: & < > "
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// EscapeHTMLAttr escapes text for use in HTML attribute values.
// Includes single-quote escaping in addition to EscapeHTML's set.
func EscapeHTMLAttr(s string) string {
	s = EscapeHTML(s)
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}

// StripBOM removes a leading UTF-8 byte order mark if present.
// Text sources call this so the tokenizer never sees the marker bytes.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
