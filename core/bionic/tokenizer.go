// Package bionic implements the Bionic Reading text transform: input text is
// partitioned into word and non-word runs, and the leading portion of each
// word is emphasized according to a configurable bold ratio.
//
// The transform is pure and total: every (text, ratio) pair produces a
// deterministic result, all input characters are preserved in order, and no
// call holds state between invocations. It is safe to call concurrently.
package bionic

// TokenClass identifies the character class of a token.
type TokenClass int

const (
	// TokenWord is a maximal run of ASCII letters and digits.
	TokenWord TokenClass = iota
	// TokenOther is a maximal run of any other characters (whitespace,
	// punctuation, symbols, and non-ASCII letters).
	TokenOther
)

// String returns a human-readable name for the token class.
func (c TokenClass) String() string {
	if c == TokenWord {
		return "word"
	}
	return "other"
}

// Token is a maximal run of input characters of a single class.
// Concatenating the Text of all tokens in order reproduces the input exactly.
type Token struct {
	Class TokenClass
	Text  string
}

// isWordByte reports whether b is an ASCII letter or digit.
// All other bytes, including every byte of a multi-byte UTF-8 sequence,
// belong to TokenOther runs, so scanning bytes never splits a rune.
func isWordByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// Tokenize partitions text into alternating word and non-word runs.
//
// The partition is lossless and maximal: every character belongs to exactly
// one token, and no two adjacent tokens share a class. Empty input yields a
// nil slice. Tokenize never fails; any byte sequence is valid input.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}

	var tokens []Token
	start := 0
	current := classOf(text[0])

	for i := 1; i < len(text); i++ {
		c := classOf(text[i])
		if c == current {
			continue
		}
		tokens = append(tokens, Token{Class: current, Text: text[start:i]})
		start = i
		current = c
	}

	return append(tokens, Token{Class: current, Text: text[start:]})
}

func classOf(b byte) TokenClass {
	if isWordByte(b) {
		return TokenWord
	}
	return TokenOther
}
