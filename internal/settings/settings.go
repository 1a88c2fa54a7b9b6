// Package settings holds the reader's display preferences and their
// persistence. Settings are a flat key-value object stored as JSON; the
// storage location is injected through the Repository interface rather than
// computed from global platform state.
package settings

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/machenxing/bionic/core/bionic"
	"github.com/machenxing/bionic/core/errors"
)

// Settings is the flat preferences object. BoldRatio is stored as a percent
// to match the persisted config format; use Ratio for the transform value.
type Settings struct {
	BoldRatio     int    `json:"bold_ratio"`     // percent, 10-90
	FontSize      int    `json:"font_size"`      // points, 8-48
	LetterSpacing int    `json:"letter_spacing"` // pixels, 0-20
	LineSpacing   int    `json:"line_spacing"`   // pixels, 10-50
	FontFamily    string `json:"font_family"`
	DarkMode      bool   `json:"dark_mode"`
}

// Default returns the settings used before any are persisted.
func Default() Settings {
	return Settings{
		BoldRatio:     40,
		FontSize:      16,
		LetterSpacing: 5,
		LineSpacing:   20,
		FontFamily:    "Arial",
		DarkMode:      false,
	}
}

// Ratio returns the bold ratio as the fraction the transform consumes,
// clamped to the supported range.
func (s Settings) Ratio() float64 {
	return bionic.ClampRatio(float64(s.BoldRatio) / 100)
}

// Clamp forces every numeric field into its supported range and fills an
// empty font family with the default. Out-of-range persisted values are
// absorbed rather than rejected.
func (s *Settings) Clamp() {
	s.BoldRatio = clampInt(s.BoldRatio, 10, 90)
	s.FontSize = clampInt(s.FontSize, 8, 48)
	s.LetterSpacing = clampInt(s.LetterSpacing, 0, 20)
	s.LineSpacing = clampInt(s.LineSpacing, 10, 50)
	if s.FontFamily == "" {
		s.FontFamily = Default().FontFamily
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Keys lists the settable keys in stable order.
func Keys() []string {
	keys := []string{"bold_ratio", "font_size", "letter_spacing", "line_spacing", "font_family", "dark_mode"}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a settings key.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case "bold_ratio":
		return strconv.Itoa(s.BoldRatio), nil
	case "font_size":
		return strconv.Itoa(s.FontSize), nil
	case "letter_spacing":
		return strconv.Itoa(s.LetterSpacing), nil
	case "line_spacing":
		return strconv.Itoa(s.LineSpacing), nil
	case "font_family":
		return s.FontFamily, nil
	case "dark_mode":
		return strconv.FormatBool(s.DarkMode), nil
	default:
		return "", errors.NewNotFound("setting", key)
	}
}

// Set parses and assigns a settings key from its string form. Numeric values
// must parse and fall inside the key's supported range.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "bold_ratio":
		return s.setInt(&s.BoldRatio, key, value, 10, 90)
	case "font_size":
		return s.setInt(&s.FontSize, key, value, 8, 48)
	case "letter_spacing":
		return s.setInt(&s.LetterSpacing, key, value, 0, 20)
	case "line_spacing":
		return s.setInt(&s.LineSpacing, key, value, 10, 50)
	case "font_family":
		if value == "" {
			return errors.NewValidation(key, "must not be empty")
		}
		s.FontFamily = value
		return nil
	case "dark_mode":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.NewValidation(key, "must be true or false")
		}
		s.DarkMode = b
		return nil
	default:
		return errors.NewNotFound("setting", key)
	}
}

func (s *Settings) setInt(field *int, key, value string, lo, hi int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return errors.NewValidation(key, "must be an integer")
	}
	if n < lo || n > hi {
		return errors.NewValidation(key, fmt.Sprintf("must be between %d and %d", lo, hi))
	}
	*field = n
	return nil
}
