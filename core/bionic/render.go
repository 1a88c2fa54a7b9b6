package bionic

import "strings"

// Span is the styled form of a token. For word runs, Emphasized holds the
// leading substring to style and Plain the remainder; their concatenation is
// the original run verbatim. For other runs, Emphasized is empty and Plain
// carries the run unchanged.
type Span struct {
	Class      TokenClass
	Emphasized string
	Plain      string
}

// Text returns the span's original characters.
func (s Span) Text() string {
	return s.Emphasized + s.Plain
}

// Markup describes an emphasis-marking convention for string output.
// Open and Close wrap the emphasized prefix of each word. If Escape is
// non-nil it is applied to every piece of original text (emphasized, plain,
// and non-word runs alike) before emission; the markers themselves are
// emitted verbatim.
type Markup struct {
	Open   string
	Close  string
	Escape func(string) string
}

// HTML marks emphasis with <b> tags and performs no escaping, matching the
// raw transform contract. Callers emitting into documents should set Escape.
var HTML = Markup{Open: "<b>", Close: "</b>"}

// ANSI marks emphasis with terminal bold escape codes.
var ANSI = Markup{Open: "\x1b[1m", Close: "\x1b[22m"}

// Layout converts tokens into styled spans for the given ratio. Word runs are
// split at min(EmphasisLength(L, ratio), L); other runs pass through with no
// styling. Token order is preserved and no characters are added or dropped.
func Layout(tokens []Token, ratio float64) []Span {
	if len(tokens) == 0 {
		return nil
	}
	spans := make([]Span, len(tokens))
	for i, tok := range tokens {
		if tok.Class != TokenWord {
			spans[i] = Span{Class: TokenOther, Plain: tok.Text}
			continue
		}
		k := EmphasisLength(len(tok.Text), ratio)
		if k > len(tok.Text) {
			k = len(tok.Text)
		}
		spans[i] = Span{Class: TokenWord, Emphasized: tok.Text[:k], Plain: tok.Text[k:]}
	}
	return spans
}

// Render emits tokens as a marked-up string under the given convention.
func Render(tokens []Token, ratio float64, m Markup) string {
	spans := Layout(tokens, ratio)
	if len(spans) == 0 {
		return ""
	}

	escape := m.Escape
	if escape == nil {
		escape = func(s string) string { return s }
	}

	size := 0
	for _, tok := range tokens {
		size += len(tok.Text)
	}

	var b strings.Builder
	// Marker overhead applies to at most every token.
	b.Grow(size + len(tokens)*(len(m.Open)+len(m.Close)))
	for _, sp := range spans {
		if sp.Emphasized != "" {
			b.WriteString(m.Open)
			b.WriteString(escape(sp.Emphasized))
			b.WriteString(m.Close)
		}
		b.WriteString(escape(sp.Plain))
	}
	return b.String()
}

// Transform is the composed entry point: tokenize text and render it with
// the given ratio and markup convention.
func Transform(text string, ratio float64, m Markup) string {
	return Render(Tokenize(text), ratio, m)
}
