package core

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two normalized labels in [0, 1], 1 meaning identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// bestMatch returns the key most similar to any candidate, at or above threshold.
// Ties go to the earlier candidate, then the earlier key.
func bestMatch(candidates, keys []string, threshold float64) (string, float64, bool) {
	var (
		bestKey   string
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, k := range keys {
			score := Similarity(c, k)
			if score >= threshold && score > bestScore {
				bestKey, bestScore, found = k, score, true
			}
		}
	}
	return bestKey, bestScore, found
}
