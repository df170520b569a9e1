package ingest

import (
	"strings"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

// Signature builds the normalized "title|company" string used for fuzzy
// duplicate detection.
func Signature(o domain.Offer) string {
	title := strings.ToLower(strings.TrimSpace(o.JobTitle))
	company := strings.ToLower(strings.TrimSpace(o.CompanyName))
	return title + "|" + company
}

// Ratio returns an edit-distance based similarity in [0.0, 1.0].
// Two empty strings are identical (1.0).
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes the edit distance with a two-row DP over bytes.
// Signatures are lowercased ASCII-ish strings; byte granularity is fine.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
