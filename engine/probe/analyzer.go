// Package probe checks whether a user-submitted URL is worth scraping and
// manages the custom sources built on those checks.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Kenfack-franck/jobHunterAi/pkg/httpx"
)

// Content classifications reported by Analyze.
const (
	ContentHTML    = "html"
	ContentJSON    = "json"
	ContentUnknown = "unknown"
)

// jobKeywords mark a page as job-related; both English and French terms
// because predefined sources skew French.
var jobKeywords = []string{"job", "career", "position", "hiring", "vacancy", "opening", "emploi", "poste"}

// antiBotMarkers are cheap signals that a page is behind bot protection.
var antiBotMarkers = []string{"cloudflare", "captcha", "recaptcha", "bot detection", "access denied"}

// maxProbeBody caps how much of a response the probe reads.
const maxProbeBody = 2 << 20

// Analysis is the probe verdict for one URL. IsScrapable holds exactly when
// job content was detected and no anti-bot marker was.
type Analysis struct {
	URL               string   `json:"url"`
	IsAccessible      bool     `json:"is_accessible"`
	ContentType       string   `json:"content_type"`
	HasJobs           bool     `json:"has_jobs"`
	JobKeywordsFound  []string `json:"job_keywords_found"`
	EstimatedJobCount int      `json:"estimated_job_count"`
	HasAntiBot        bool     `json:"has_anti_bot"`
	AntiBotIndicators []string `json:"anti_bot_indicators"`
	Recommendation    string   `json:"recommendation"`
	IsScrapable       bool     `json:"is_scrapable"`
	Error             string   `json:"error,omitempty"`
}

// Analyzer probes URLs. It never returns an error: every failure mode
// (timeout, DNS, TLS, non-200) becomes a structured negative Analysis so
// callers can store and display it.
type Analyzer struct {
	client  *httpx.Client
	timeout time.Duration
}

// NewAnalyzer returns an analyzer over the shared anti-ban client.
func NewAnalyzer(client *httpx.Client) *Analyzer {
	return &Analyzer{client: client, timeout: 10 * time.Second}
}

// Analyze fetches the URL and classifies what lives there.
func (a *Analyzer) Analyze(ctx context.Context, url string) Analysis {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res := Analysis{URL: url, ContentType: ContentUnknown}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Error = err.Error()
		res.Recommendation = "URL is malformed."
		return res
	}

	resp, err := a.client.Do(req)
	if err != nil {
		res.Error = err.Error()
		res.Recommendation = "URL is not reachable."
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		res.Recommendation = "URL is not reachable."
		return res
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		res.Error = err.Error()
		res.Recommendation = "URL is not reachable."
		return res
	}

	res.IsAccessible = true
	text := strings.ToLower(string(body))
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	switch {
	case strings.Contains(contentType, "application/json"):
		res.ContentType = ContentJSON
		res.JobKeywordsFound = found(text, jobKeywords)
		res.HasJobs = len(res.JobKeywordsFound) > 0
	case strings.Contains(contentType, "text/html"):
		res.ContentType = ContentHTML
		res.JobKeywordsFound = found(text, jobKeywords)
		res.HasJobs = len(res.JobKeywordsFound) > 0
		res.EstimatedJobCount = estimateJobElements(strings.NewReader(string(body)))
	default:
		res.ContentType = ContentUnknown
	}

	res.AntiBotIndicators = found(text, antiBotMarkers)
	res.HasAntiBot = len(res.AntiBotIndicators) > 0
	res.IsScrapable = res.HasJobs && !res.HasAntiBot
	res.Recommendation = recommendation(res)
	return res
}

func recommendation(a Analysis) string {
	switch {
	case !a.HasJobs:
		return "No job content detected. This does not look like a careers page."
	case a.HasAntiBot:
		return "Anti-bot protection detected. Scraping may fail."
	case a.ContentType == ContentJSON:
		return "JSON API detected. Scraping should be easy and reliable."
	default:
		return "HTML page with job content detected. Scraping is possible."
	}
}

// estimateJobElements counts distinct job-looking elements on a page:
// class names mentioning job or position, and links into /job paths.
func estimateJobElements(r io.Reader) int {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return 0
	}

	seen := make(map[string]bool)
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		lower := strings.ToLower(class)
		if strings.Contains(lower, "job") || strings.Contains(lower, "position") {
			if h, err := goquery.OuterHtml(s); err == nil {
				seen[h] = true
			}
		}
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.Contains(strings.ToLower(href), "/job") {
			seen[href] = true
		}
	})

	if len(seen) > 20 {
		return 20
	}
	return len(seen)
}

func found(text string, markers []string) []string {
	var hits []string
	for _, m := range markers {
		if strings.Contains(text, m) {
			hits = append(hits, m)
		}
	}
	return hits
}
