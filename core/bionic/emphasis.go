package bionic

import "math"

// DefaultRatio is the bold ratio used when the caller supplies none.
// It matches the application default of 40%.
const DefaultRatio = 0.4

// EmphasisLength returns the number of leading characters of a word to
// emphasize: floor(wordLen*ratio), clamped to a minimum of 1 so the bionic
// effect is never silently absent on short words.
//
// The function is total over all real ratios. A ratio at or below zero yields
// 1; a ratio of one or more may yield a value exceeding wordLen, which
// callers slicing a word must clamp to the word length (Layout does this).
// Behavior for wordLen < 1 is undefined; Tokenize never produces empty runs.
func EmphasisLength(wordLen int, ratio float64) int {
	n := int(math.Floor(float64(wordLen) * ratio))
	if n < 1 {
		return 1
	}
	return n
}

// ClampRatio constrains a ratio to the range the UI exposes, 0.10 to 0.90.
// The transform itself absorbs any ratio; this is boundary validation for
// settings and user input.
func ClampRatio(ratio float64) float64 {
	switch {
	case ratio < 0.10:
		return 0.10
	case ratio > 0.90:
		return 0.90
	default:
		return ratio
	}
}
