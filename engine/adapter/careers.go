package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/pkg/httpx"
)

// jobLinkHints mark anchors that usually point at a posting rather than
// site chrome.
var jobLinkHints = []string{"/job", "/jobs", "/offre", "/offres", "/career", "/careers", "/position", "/emploi", "/poste"}

// Careers is a best-effort scraper for a single company's career page.
// Career sites share no markup, so it walks anchors whose href or text
// looks like a posting and attributes every offer to the owning company.
type Careers struct {
	sourceID string
	company  string
	pageURL  string
	client   *httpx.Client
	limiter  *rate.Limiter
}

// NewCareers returns an adapter for one catalog careers entry.
func NewCareers(client *httpx.Client, sourceID, company, pageURL string) *Careers {
	return &Careers{
		sourceID: sourceID,
		company:  company,
		pageURL:  pageURL,
		client:   client,
		limiter:  rate.NewLimiter(rate.Every(3*time.Second), 1),
	}
}

func (c *Careers) ID() string { return c.sourceID }

// Fetch downloads the career page once and extracts posting links matching
// the query keywords. Company career pages rarely paginate in a scrapable
// way, so a single page is the whole crawl.
func (c *Careers) Fetch(ctx context.Context, q domain.Query, maxResults int) ([]domain.RawOffer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", c.sourceID, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.sourceID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", c.sourceID, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: parsing HTML: %w", c.sourceID, err)
	}

	base, err := url.Parse(c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: bad page url: %w", c.sourceID, err)
	}

	keywords := strings.Fields(strings.ToLower(q.Keywords))
	seen := make(map[string]bool)
	var offers []domain.RawOffer

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		title := strings.TrimSpace(s.Text())
		if title == "" || len(title) < 4 || !looksLikeJobLink(href) {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref).String()
		if seen[abs] {
			return true
		}
		if len(keywords) > 0 && !containsAny(strings.ToLower(title), keywords) {
			return true
		}
		seen[abs] = true
		offers = append(offers, domain.RawOffer{
			Title:   title,
			Company: c.company,
			URL:     abs,
			Source:  c.sourceID,
		})
		return len(offers) < maxResults
	})
	return offers, nil
}

func looksLikeJobLink(href string) bool {
	lower := strings.ToLower(href)
	for _, hint := range jobLinkHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
