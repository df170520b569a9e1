package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

const themuseFixture = `{"results": [
	{"id": 900, "name": "Senior Go Engineer", "contents": "<p>Backend in Go.</p>",
	 "company": {"name": "Acme"},
	 "locations": [{"name": "Flexible / Remote"}],
	 "categories": [{"name": "Engineering"}],
	 "levels": [{"name": "Senior"}],
	 "refs": {"landing_page": "https://themuse.com/jobs/acme/900"},
	 "publication_date": "2026-02-15T12:00:00Z"},
	{"id": 901, "name": "Marketing Manager", "contents": "<p>Run campaigns.</p>",
	 "company": {"name": "Globex"},
	 "locations": [{"name": "Paris"}],
	 "categories": [{"name": "Marketing"}],
	 "levels": [],
	 "refs": {"landing_page": "https://themuse.com/jobs/globex/901"},
	 "publication_date": ""},
	{"id": 902, "name": "Orphan Posting", "contents": "",
	 "company": {"name": "Hooli"},
	 "locations": [], "categories": [], "levels": [],
	 "refs": {"landing_page": ""}, "publication_date": ""}
]}`

func newTheMuseServer(t *testing.T, capture *[]string) *TheMuse {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = append(*capture, r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(themuseFixture))
	}))
	t.Cleanup(srv.Close)

	a := NewTheMuse(newTestClient(t))
	a.apiURL = srv.URL
	return a
}

func TestTheMuseKeywordFilter(t *testing.T) {
	// The API has no search parameter, so only client-side filtering keeps
	// the Go job and drops the marketing one.
	offers, err := newTheMuseServer(t, nil).Fetch(context.Background(), domain.Query{Keywords: "go backend"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 1 || offers[0].Title != "Senior Go Engineer" {
		t.Fatalf("keyword filter failed: %+v", offers)
	}
	if offers[0].WorkMode != domain.WorkModeRemote {
		t.Fatalf("remote location not mapped to work mode: %+v", offers[0])
	}
}

func TestTheMuseSkipsIncompletePostings(t *testing.T) {
	offers, err := newTheMuseServer(t, nil).Fetch(context.Background(), domain.Query{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, o := range offers {
		if o.URL == "" {
			t.Fatalf("posting without landing page kept: %+v", o)
		}
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
}

func TestTheMuseRequestParams(t *testing.T) {
	var queries []string
	a := newTheMuseServer(t, &queries)

	_, err := a.Fetch(context.Background(), domain.Query{Location: "remote", Company: "Acme"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queries) == 0 {
		t.Fatal("no request made")
	}
	q := queries[0]
	for _, want := range []string{"location=Flexible+%2F+Remote", "company=Acme", "page=0"} {
		if !strings.Contains(q, want) {
			t.Fatalf("query %q missing %q", q, want)
		}
	}
}
