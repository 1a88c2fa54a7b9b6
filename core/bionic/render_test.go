package bionic

import (
	"strings"
	"testing"
)

func TestTransformHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ratio float64
		want  string
	}{
		{"empty", "", 0.4, ""},
		{"single short word", "cat", 0.4, "<b>c</b>at"},
		{"hello world", "Hello, world!", 0.4, "<b>He</b>llo, <b>wo</b>rld!"},
		{"ratio above one covers words", "a1 b2", 1.5, "<b>a1</b> <b>b2</b>"},
		{"zero ratio keeps minimum", "reading", 0, "<b>r</b>eading"},
		{"one-letter words", "a b c", 0.4, "<b>a</b> <b>b</b> <b>c</b>"},
		{"whitespace only", " \n\t", 0.4, " \n\t"},
		{"non-ascii untouched", "日本語", 0.4, "日本語"},
		// ï is a non-word run, so "naïve" splits into na / ï / ve.
		{"mixed", "naïve test", 0.5, "<b>n</b>aï<b>v</b>e <b>te</b>st"},
		{"full ratio", "word", 1.0, "<b>word</b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform(tt.input, tt.ratio, HTML)
			if got != tt.want {
				t.Errorf("Transform(%q, %v) = %q, want %q", tt.input, tt.ratio, got, tt.want)
			}
		})
	}
}

func TestTransformANSI(t *testing.T) {
	got := Transform("read", 0.5, ANSI)
	want := "\x1b[1mre\x1b[22mad"
	if got != want {
		t.Errorf("Transform ANSI = %q, want %q", got, want)
	}
}

func TestTransformEscape(t *testing.T) {
	upper := Markup{Open: "[", Close: "]", Escape: strings.ToUpper}
	got := Transform("ab cd", 0.5, upper)
	want := "[A]B [C]D"
	if got != want {
		t.Errorf("Transform with escape = %q, want %q", got, want)
	}
}

func TestLayout(t *testing.T) {
	spans := Layout(Tokenize("Hello, world!"), 0.4)
	want := []Span{
		{Class: TokenWord, Emphasized: "He", Plain: "llo"},
		{Class: TokenOther, Plain: ", "},
		{Class: TokenWord, Emphasized: "wo", Plain: "rld"},
		{Class: TokenOther, Plain: "!"},
	}

	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d", len(spans), len(want))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}
}

// TestLayoutLossless verifies span output reconstructs the input and that
// other runs are never altered.
func TestLayoutLossless(t *testing.T) {
	inputs := []string{
		"Hello, world!",
		"",
		"punctuation!!! and;;; symbols###",
		"multi\nline\ninput with 123 numbers",
	}
	ratios := []float64{-1, 0, 0.1, 0.4, 0.9, 1, 2}

	for _, input := range inputs {
		tokens := Tokenize(input)
		for _, r := range ratios {
			spans := Layout(tokens, r)

			var b strings.Builder
			for _, sp := range spans {
				b.WriteString(sp.Text())
			}
			if got := b.String(); got != input {
				t.Errorf("ratio %v: spans reconstruct %q, want %q", r, got, input)
			}

			for i, sp := range spans {
				if sp.Class == TokenOther && (sp.Emphasized != "" || sp.Plain != tokens[i].Text) {
					t.Errorf("ratio %v: other run %d altered: %+v", r, i, sp)
				}
				if sp.Class == TokenWord && sp.Emphasized == "" {
					t.Errorf("ratio %v: word run %d has no emphasis", r, i)
				}
			}
		}
	}
}

func BenchmarkTransform(b *testing.B) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Transform(text, DefaultRatio, HTML)
	}
}
