package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/pkg/httpx"
)

const (
	remoteokAPIURL  = "https://remoteok.com/api"
	remoteokBaseURL = "https://remoteok.com"
)

// RemoteOK fetches from the RemoteOK public API. The API returns every
// active listing in one call, so filtering happens client-side. RemoteOK
// allows 500 requests per hour; the limiter keeps us well under that.
type RemoteOK struct {
	client  *httpx.Client
	limiter *rate.Limiter
	apiURL  string
}

// NewRemoteOK returns the adapter using the shared anti-ban client.
func NewRemoteOK(client *httpx.Client) *RemoteOK {
	return &RemoteOK{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(8*time.Second), 1),
		apiURL:  remoteokAPIURL,
	}
}

func (r *RemoteOK) ID() string { return "remoteok" }

// remoteokJob mirrors one entry of the API payload. The first array element
// is a legal notice, not a job; it decodes to a zero ID and is skipped.
type remoteokJob struct {
	ID          json.Number `json:"id"`
	Slug        string      `json:"slug"`
	Position    string      `json:"position"`
	Company     string      `json:"company"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	URL         string      `json:"url"`
	Date        string      `json:"date"`
}

// Fetch downloads the full listing dump and filters it by the query's
// keywords and company.
func (r *RemoteOK) Fetch(ctx context.Context, q domain.Query, maxResults int) ([]domain.RawOffer, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remoteok: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remoteok: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remoteok: unexpected status %d", resp.StatusCode)
	}

	var jobs []remoteokJob
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("remoteok: decoding payload: %w", err)
	}

	keywords := strings.Fields(strings.ToLower(q.Keywords))
	company := strings.ToLower(q.Company)

	var offers []domain.RawOffer
	for _, j := range jobs {
		if j.ID.String() == "" || j.Position == "" {
			continue
		}
		if len(keywords) > 0 {
			text := strings.ToLower(j.Position + " " + j.Description + " " + strings.Join(j.Tags, " "))
			if !containsAny(text, keywords) {
				continue
			}
		}
		if company != "" && !strings.Contains(strings.ToLower(j.Company), company) {
			continue
		}

		url := j.URL
		if url == "" {
			if j.Slug != "" {
				url = remoteokBaseURL + "/remote-jobs/" + j.Slug
			} else {
				url = remoteokBaseURL + "/remote-jobs/" + j.ID.String()
			}
		}
		location := strings.TrimSpace(j.Location)
		if location == "" {
			location = "Remote"
		}

		var published time.Time
		if t, err := time.Parse(time.RFC3339, j.Date); err == nil {
			published = t
		}

		offers = append(offers, domain.RawOffer{
			Title:       strings.TrimSpace(j.Position),
			Company:     strings.TrimSpace(j.Company),
			Location:    location,
			Description: strings.TrimSpace(j.Description),
			URL:         url,
			WorkMode:    domain.WorkModeRemote,
			Tags:        j.Tags,
			Source:      r.ID(),
			PublishedAt: published,
		})
		if len(offers) >= maxResults {
			break
		}
	}
	return offers, nil
}

// containsAny reports whether text contains at least one of the words.
func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
