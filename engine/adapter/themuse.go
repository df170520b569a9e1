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
	themuseAPIURL      = "https://www.themuse.com/api/public/jobs"
	themusePageSize    = 20
	themuseMaxPages    = 5
	themuseDescription = 500
)

// TheMuse fetches from The Muse public API. The API has no full-text search
// parameter, so keyword filtering happens client-side after each page.
type TheMuse struct {
	client  *httpx.Client
	limiter *rate.Limiter
	apiURL  string
}

// NewTheMuse returns the adapter using the shared anti-ban client.
func NewTheMuse(client *httpx.Client) *TheMuse {
	return &TheMuse{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		apiURL:  themuseAPIURL,
	}
}

func (m *TheMuse) ID() string { return "themuse" }

type themuseResponse struct {
	Results []themuseJob `json:"results"`
}

type themuseJob struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Contents string      `json:"contents"`
	Company  struct {
		Name string `json:"name"`
	} `json:"company"`
	Locations []struct {
		Name string `json:"name"`
	} `json:"locations"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Levels []struct {
		Name string `json:"name"`
	} `json:"levels"`
	Refs struct {
		LandingPage string `json:"landing_page"`
	} `json:"refs"`
	PublicationDate string `json:"publication_date"`
}

// Fetch pages through the API (0-indexed) and keeps offers whose title,
// contents or categories mention at least one query keyword.
func (m *TheMuse) Fetch(ctx context.Context, q domain.Query, maxResults int) ([]domain.RawOffer, error) {
	params := url.Values{}
	params.Set("descending", "true")
	if q.Location != "" {
		loc := q.Location
		if strings.EqualFold(loc, "remote") {
			loc = "Flexible / Remote"
		}
		params.Set("location", loc)
	}
	if q.Company != "" {
		params.Set("company", q.Company)
	}

	keywords := strings.Fields(strings.ToLower(q.Keywords))

	var offers []domain.RawOffer
	for page := 0; page < themuseMaxPages && len(offers) < maxResults; page++ {
		if err := m.limiter.Wait(ctx); err != nil {
			return offers, err
		}
		params.Set("page", strconv.Itoa(page))

		batch, err := m.fetchPage(ctx, params)
		if err != nil {
			return offers, fmt.Errorf("themuse page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, j := range batch {
			if j.ID.String() == "" || j.Name == "" || j.Refs.LandingPage == "" {
				continue
			}
			if len(keywords) > 0 {
				text := strings.ToLower(j.Name + " " + j.Contents + " " + joinNames(j.Categories))
				if !containsAny(text, keywords) {
					continue
				}
			}
			offers = append(offers, m.toRawOffer(j))
			if len(offers) >= maxResults {
				break
			}
		}
	}
	return offers, nil
}

func (m *TheMuse) fetchPage(ctx context.Context, params url.Values) ([]themuseJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body themuseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return body.Results, nil
}

func (m *TheMuse) toRawOffer(j themuseJob) domain.RawOffer {
	location := ""
	if len(j.Locations) > 0 {
		location = j.Locations[0].Name
	}
	description := j.Contents
	if len(description) > themuseDescription {
		description = description[:themuseDescription]
	}
	var published time.Time
	if t, err := time.Parse(time.RFC3339, j.PublicationDate); err == nil {
		published = t
	}
	workMode := ""
	if strings.Contains(strings.ToLower(location), "remote") {
		workMode = domain.WorkModeRemote
	}
	return domain.RawOffer{
		Title:       strings.TrimSpace(j.Name),
		Company:     strings.TrimSpace(j.Company.Name),
		Location:    location,
		Description: strings.TrimSpace(description),
		URL:         j.Refs.LandingPage,
		WorkMode:    workMode,
		Tags:        strings.Fields(joinNames(j.Categories)),
		Source:      m.ID(),
		PublishedAt: published,
	}
}

func joinNames(items []struct {
	Name string `json:"name"`
}) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Name)
	}
	return strings.Join(parts, " ")
}
