package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/pkg/httpx"
)

const (
	wttjBaseURL  = "https://www.welcometothejungle.com"
	wttjMaxPages = 3
)

// WTTJ scrapes Welcome to the Jungle search result pages. The site ships a
// server-rendered listing; each result card carries data-testid attributes,
// with looser class-based selectors as fallback when the markup shifts.
type WTTJ struct {
	client  *httpx.Client
	limiter *rate.Limiter
	baseURL string
}

// NewWTTJ returns the adapter using the shared anti-ban client.
func NewWTTJ(client *httpx.Client) *WTTJ {
	return &WTTJ{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		baseURL: wttjBaseURL,
	}
}

func (w *WTTJ) ID() string { return "wttj" }

// Fetch walks the paginated search listing until maxResults offers are
// collected or a page comes back empty.
func (w *WTTJ) Fetch(ctx context.Context, q domain.Query, maxResults int) ([]domain.RawOffer, error) {
	var offers []domain.RawOffer
	for page := 1; page <= wttjMaxPages && len(offers) < maxResults; page++ {
		if err := w.limiter.Wait(ctx); err != nil {
			return offers, err
		}
		batch, err := w.fetchPage(ctx, q, page)
		if err != nil {
			return offers, fmt.Errorf("wttj page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		offers = append(offers, batch...)
	}
	if len(offers) > maxResults {
		offers = offers[:maxResults]
	}
	return offers, nil
}

func (w *WTTJ) fetchPage(ctx context.Context, q domain.Query, page int) ([]domain.RawOffer, error) {
	params := url.Values{}
	params.Set("query", q.Keywords)
	params.Set("page", strconv.Itoa(page))
	if q.Location != "" {
		params.Set("aroundQuery", q.Location)
	}
	if q.WorkMode == domain.WorkModeRemote {
		params.Set("refinementList[remote][]", "fulltime")
	}

	searchURL := w.baseURL + "/fr/jobs?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	companyFilter := strings.ToLower(q.Company)
	var offers []domain.RawOffer
	doc.Find("[data-testid='jobs-search-item'], .sc-job-card, li[role='listitem']").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("[data-testid='job-title'], .job-card-title, h3, h4").First().Text())
		if title == "" {
			return
		}
		company := strings.TrimSpace(s.Find("[data-testid='job-company'], .company-name, [class*='CompanyName']").First().Text())
		if companyFilter != "" && !strings.Contains(strings.ToLower(company), companyFilter) {
			return
		}
		location := strings.TrimSpace(s.Find("[data-testid='job-location'], .location, [class*='Location']").First().Text())

		href, ok := s.Find("a[href*='/jobs/']").First().Attr("href")
		if !ok || href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = w.baseURL + href
		}

		var tags []string
		s.Find("[data-testid='job-tag'], .tag, [class*='Tag']").Each(func(_ int, t *goquery.Selection) {
			if v := strings.TrimSpace(t.Text()); v != "" {
				tags = append(tags, v)
			}
		})

		workMode := ""
		if strings.Contains(strings.ToLower(location+" "+strings.Join(tags, " ")), "télétravail") {
			workMode = domain.WorkModeRemote
		}

		offers = append(offers, domain.RawOffer{
			Title:    title,
			Company:  company,
			Location: location,
			URL:      href,
			WorkMode: workMode,
			Tags:     tags,
			Source:   w.ID(),
		})
	})
	return offers, nil
}
