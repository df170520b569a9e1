package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/pkg/httpx"
)

const (
	hnAPIURL   = "https://hn.algolia.com/api/v1/search_by_date"
	hnItemURL  = "https://news.ycombinator.com/item?id="
	hnPageSize = 50
)

// HackerNews fetches job posts through the Algolia HN search API. HN job
// posts carry most structure in the title ("Acme (YC W24) Is Hiring a Go
// Engineer"), so the company is recovered from the title when possible.
type HackerNews struct {
	client  *httpx.Client
	limiter *rate.Limiter
	apiURL  string
}

// NewHackerNews returns the adapter using the shared anti-ban client.
func NewHackerNews(client *httpx.Client) *HackerNews {
	return &HackerNews{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		apiURL:  hnAPIURL,
	}
}

func (h *HackerNews) ID() string { return "hackernews" }

type hnResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID  string `json:"objectID"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	StoryText string `json:"story_text"`
	CreatedAt string `json:"created_at"`
}

// Fetch searches Algolia for job-tagged stories matching the keywords.
func (h *HackerNews) Fetch(ctx context.Context, q domain.Query, maxResults int) ([]domain.RawOffer, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("tags", "job")
	params.Set("query", strings.TrimSpace(q.Keywords+" "+q.Company))
	params.Set("hitsPerPage", strconv.Itoa(hnPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("hackernews: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hackernews: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hackernews: unexpected status %d", resp.StatusCode)
	}

	var body hnResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("hackernews: decoding payload: %w", err)
	}

	var offers []domain.RawOffer
	for _, hit := range body.Hits {
		if hit.Title == "" {
			continue
		}
		link := hit.URL
		if link == "" {
			link = hnItemURL + hit.ObjectID
		}
		company := companyFromHNTitle(hit.Title)
		if q.Company != "" && !strings.Contains(strings.ToLower(company), strings.ToLower(q.Company)) {
			continue
		}
		var published time.Time
		if t, err := time.Parse(time.RFC3339, hit.CreatedAt); err == nil {
			published = t
		}
		offers = append(offers, domain.RawOffer{
			Title:       strings.TrimSpace(hit.Title),
			Company:     company,
			Description: hit.StoryText,
			URL:         link,
			Source:      h.ID(),
			PublishedAt: published,
		})
		if len(offers) >= maxResults {
			break
		}
	}
	return offers, nil
}

// companyFromHNTitle extracts the poster's company from the conventional
// "Company (YC Sxx) Is Hiring ..." title shape. Returns "" when the title
// does not follow the convention.
func companyFromHNTitle(title string) string {
	lower := strings.ToLower(title)
	idx := strings.Index(lower, " is hiring")
	if idx <= 0 {
		return ""
	}
	company := title[:idx]
	if p := strings.Index(company, " ("); p > 0 {
		company = company[:p]
	}
	return strings.TrimSpace(company)
}
