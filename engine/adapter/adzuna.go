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
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3
)

// Adzuna fetches from the Adzuna REST API. Credentials are optional: with
// an empty AppID or AppKey the adapter returns no offers and no error, so a
// deployment without keys degrades to the remaining sources.
type Adzuna struct {
	AppID   string
	AppKey  string
	Country string
	client  *httpx.Client
	limiter *rate.Limiter
	baseURL string
}

// NewAdzuna returns the adapter for one country code ("fr", "gb", "us").
func NewAdzuna(client *httpx.Client, appID, appKey, country string) *Adzuna {
	if country == "" {
		country = "fr"
	}
	return &Adzuna{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		baseURL: adzunaBaseURL,
	}
}

func (a *Adzuna) ID() string { return "adzuna" }

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
}

type adzunaResult struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	RedirectURL  string `json:"redirect_url"`
	Created      string `json:"created"`
	ContractTime string `json:"contract_time"`
	Company      struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

// Fetch pages through the search endpoint until maxResults offers are
// collected or the results run out. A mid-pagination failure returns the
// pages already parsed together with the error.
func (a *Adzuna) Fetch(ctx context.Context, q domain.Query, maxResults int) ([]domain.RawOffer, error) {
	if a.AppID == "" || a.AppKey == "" {
		return nil, nil
	}

	// Adzuna has no separate company parameter; fold it into the keywords.
	what := q.Keywords
	if q.Company != "" {
		what = strings.TrimSpace(what + " " + q.Company)
	}
	where := q.Location
	if where == "" {
		where = "France"
	}

	var offers []domain.RawOffer
	for page := 1; page <= adzunaMaxPages && len(offers) < maxResults; page++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return offers, err
		}
		batch, err := a.fetchPage(ctx, what, where, page)
		if err != nil {
			return offers, fmt.Errorf("adzuna page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		offers = append(offers, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}
	if len(offers) > maxResults {
		offers = offers[:maxResults]
	}
	return offers, nil
}

func (a *Adzuna) fetchPage(ctx context.Context, what, where string, page int) ([]domain.RawOffer, error) {
	params := url.Values{}
	params.Set("app_id", a.AppID)
	params.Set("app_key", a.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", what)
	params.Set("where", where)
	params.Set("sort_by", "date")
	params.Set("content-type", "application/json")

	endpoint := fmt.Sprintf("%s/%s/search/%d?%s", a.baseURL, a.Country, page, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}

	offers := make([]domain.RawOffer, 0, len(body.Results))
	for _, r := range body.Results {
		if r.Title == "" || r.RedirectURL == "" {
			continue
		}
		var published time.Time
		if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
			published = t
		}
		offers = append(offers, domain.RawOffer{
			Title:       strings.TrimSpace(r.Title),
			Company:     strings.TrimSpace(r.Company.DisplayName),
			Location:    r.Location.DisplayName,
			Description: strings.TrimSpace(r.Description),
			URL:         r.RedirectURL,
			JobType:     contractTimeToJobType(r.ContractTime),
			Source:      a.ID(),
			PublishedAt: published,
		})
	}
	return offers, nil
}

func contractTimeToJobType(ct string) string {
	switch ct {
	case "full_time":
		return domain.JobTypeFullTime
	case "part_time":
		return domain.JobTypePartTime
	default:
		return ""
	}
}
