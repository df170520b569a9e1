package domain

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// SQL fragments that should never appear in search keywords.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|EXEC|UNION)\b.*\b(TABLE|FROM|INTO|SELECT|SET)\b`),
	regexp.MustCompile(`(?i)(--|;)\s*(DROP|DELETE|SELECT)`),
	regexp.MustCompile(`(?i)\$\{.*\}`), // template injection
}

const minKeywordsLength = 2

// ValidateQuery validates a search query before it reaches the orchestrator.
func ValidateQuery(q Query) error {
	keywords := strings.TrimSpace(q.Keywords)

	if utf8.RuneCountInString(keywords) < minKeywordsLength {
		return NewValidationError("keywords", keywords, ErrQueryTooShort)
	}

	for _, pat := range injectionPatterns {
		if pat.MatchString(keywords) {
			return NewValidationError("keywords", keywords, ErrQueryInjection)
		}
	}

	if q.JobType != "" && !ValidJobTypes[strings.ToLower(q.JobType)] {
		return NewValidationError("job_type", q.JobType, ErrInvalidJobType)
	}
	if q.WorkMode != "" && !ValidWorkModes[strings.ToLower(q.WorkMode)] {
		return NewValidationError("work_mode", q.WorkMode, ErrInvalidWorkMode)
	}

	return nil
}

// ValidateRawOffer checks the minimum an adapter must deliver: a title, a
// company, and a resolvable absolute URL.
func ValidateRawOffer(o RawOffer) error {
	if strings.TrimSpace(o.Title) == "" || strings.TrimSpace(o.Company) == "" {
		return NewValidationError("title/company", o.Title, ErrOfferIncomplete)
	}
	if o.URL == "" {
		return NewValidationError("url", o.URL, ErrInvalidSourceURL)
	}
	u, err := url.Parse(o.URL)
	if err != nil || !u.IsAbs() {
		return NewValidationError("url", o.URL, ErrInvalidSourceURL)
	}
	return nil
}

// ValidateSourceURL checks that a user-submitted URL is absolute http(s).
func ValidateSourceURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("url", raw, ErrInvalidSourceURL)
	}
	return nil
}

// Slugify derives a stable entity key from a display name: lowercase,
// accents stripped, runs of non-alphanumerics collapsed to a single dash.
// "Google Inc." and "google-inc" map to the same slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = stripAccents(s)

	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

var accentReplacer = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"à", "a", "â", "a", "ä", "a",
	"ù", "u", "û", "u", "ü", "u",
	"ô", "o", "ö", "o",
	"î", "i", "ï", "i",
	"ç", "c",
)

func stripAccents(s string) string {
	return accentReplacer.Replace(s)
}
