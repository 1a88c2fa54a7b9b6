// Package pagerange parses page selection expressions for PDF extraction.
//
// A selection is a comma-separated list of pages and inclusive ranges:
//
//	"3"        page 3 only
//	"1-5"      pages 1 through 5
//	"1-5,8"    pages 1 through 5 and page 8
//	"12-"      page 12 through the end of the document
package pagerange

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Range is an inclusive page range. End of 0 means "through the last page".
type Range struct {
	Start int
	End   int
}

// Set is an ordered collection of page ranges.
type Set struct {
	Ranges []Range
}

// rangeGrammar is the participle grammar for selection expressions.
//
//nolint:govet // participle grammar tags are not standard struct tags
type rangeGrammar struct {
	First *rangeItem   `parser:"@@"`
	Rest  []*rangeItem `parser:"( \",\" @@ )*"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type rangeItem struct {
	Start int        `parser:"@Int"`
	Tail  *rangeTail `parser:"@@?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type rangeTail struct {
	Dash bool `parser:"@\"-\""`
	End  *int `parser:"@Int?"`
}

var rangeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[,\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var rangeParser = participle.MustBuild[rangeGrammar](
	participle.Lexer(rangeLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a page selection expression.
func Parse(s string) (*Set, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty page selection")
	}

	parsed, err := rangeParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid page selection: %q: %w", s, err)
	}

	items := append([]*rangeItem{parsed.First}, parsed.Rest...)
	set := &Set{Ranges: make([]Range, 0, len(items))}
	for _, item := range items {
		r, err := item.toRange()
		if err != nil {
			return nil, err
		}
		set.Ranges = append(set.Ranges, r)
	}
	return set, nil
}

func (item *rangeItem) toRange() (Range, error) {
	if item.Start < 1 {
		return Range{}, fmt.Errorf("page numbers start at 1, got %d", item.Start)
	}
	if item.Tail == nil {
		return Range{Start: item.Start, End: item.Start}, nil
	}
	if item.Tail.End == nil {
		// Open-ended: "12-"
		return Range{Start: item.Start, End: 0}, nil
	}
	end := *item.Tail.End
	if end < item.Start {
		return Range{}, fmt.Errorf("range %d-%d is backwards", item.Start, end)
	}
	return Range{Start: item.Start, End: end}, nil
}

// Contains reports whether page is selected by the set. A nil set selects
// every page.
func (s *Set) Contains(page int) bool {
	if s == nil {
		return true
	}
	for _, r := range s.Ranges {
		if page >= r.Start && (r.End == 0 || page <= r.End) {
			return true
		}
	}
	return false
}

// Pages expands the set against a document of total pages, in ascending
// order without duplicates. A nil set yields every page.
func (s *Set) Pages(total int) []int {
	var pages []int
	for p := 1; p <= total; p++ {
		if s.Contains(p) {
			pages = append(pages, p)
		}
	}
	return pages
}

// String reconstructs the selection expression.
func (s *Set) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, len(s.Ranges))
	for _, r := range s.Ranges {
		switch {
		case r.End == 0:
			parts = append(parts, fmt.Sprintf("%d-", r.Start))
		case r.End == r.Start:
			parts = append(parts, fmt.Sprintf("%d", r.Start))
		default:
			parts = append(parts, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
	}
	return strings.Join(parts, ",")
}
