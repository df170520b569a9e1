package watch

import (
	"regexp"
	"strings"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/engine/ingest"
)

// DefaultCompanyMatchThreshold accepts broad-search offers whose company
// name is at least this similar to the watched one. Looser than generic
// dedup because sources vary more in how they spell a company.
const DefaultCompanyMatchThreshold = 0.75

// legalSuffixes are trailing legal forms dropped before comparing company
// names, so "Acme Inc." and "ACME" compare equal.
var legalSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+(inc\.?|incorporated)$`),
	regexp.MustCompile(`(?i)\s+(llc\.?|ltd\.?|limited)$`),
	regexp.MustCompile(`(?i)\s+(corp\.?|corporation)$`),
	regexp.MustCompile(`(?i)\s+(sa|sas|sarl|sasu)$`),
	regexp.MustCompile(`(?i)\s+(gmbh|ag)$`),
	regexp.MustCompile(`(?i)\s+(bv|nv)$`),
	regexp.MustCompile(`(?i)\s+company$`),
	regexp.MustCompile(`(?i)\s+group$`),
}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// NormalizeCompanyName lowercases, strips trailing legal suffixes and
// punctuation, and collapses whitespace.
func NormalizeCompanyName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, suf := range legalSuffixes {
		n = suf.ReplaceAllString(n, "")
	}
	n = nonWord.ReplaceAllString(n, "")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// EntitySlug derives the mutualization key for a company name: legal
// suffixes are stripped before slugging so spelling variants of the same
// company land on the same watched entity.
func EntitySlug(name string) string {
	return domain.Slugify(NormalizeCompanyName(name))
}

// CompanyMatches reports whether an offer's company plausibly is the
// watched one: equal after normalization, one containing the other, or
// similar at or above threshold.
func CompanyMatches(watched, offerCompany string, threshold float64) bool {
	a := NormalizeCompanyName(watched)
	b := NormalizeCompanyName(offerCompany)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return ingest.Ratio(a, b) >= threshold
}
