package watch

import (
	"context"
	"errors"
	"testing"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

type stubAdapter struct {
	id     string
	offers []domain.RawOffer
	err    error
	gotQ   domain.Query
}

func (s *stubAdapter) ID() string { return s.id }

func (s *stubAdapter) Fetch(_ context.Context, q domain.Query, _ int) ([]domain.RawOffer, error) {
	s.gotQ = q
	return s.offers, s.err
}

func TestFetchAllMergesStrategies(t *testing.T) {
	primary := &stubAdapter{id: "themuse", offers: []domain.RawOffer{
		{Title: "Go Engineer", Company: "Acme", URL: "https://a.example/1", Source: "themuse"},
	}}
	secondary := &stubAdapter{id: "wttj", offers: []domain.RawOffer{
		{Title: "Backend Dev", Company: "Acme Inc.", URL: "https://b.example/2", Source: "wttj"},
		{Title: "Backend Dev", Company: "Globex", URL: "https://b.example/3", Source: "wttj"},
	}}
	s := NewScraper(nil, primary, secondary, nil, 0, nil)

	raws := s.fetchAll(context.Background(), "Acme")

	// Primary results are trusted as-is; secondary results must pass the
	// fuzzy company match, which keeps "Acme Inc." and drops Globex.
	if len(raws) != 2 {
		t.Fatalf("expected 2 offers, got %d: %+v", len(raws), raws)
	}
	if primary.gotQ.Company != "Acme" {
		t.Fatalf("primary not queried by company: %+v", primary.gotQ)
	}
	if secondary.gotQ.Keywords != "Acme" {
		t.Fatalf("secondary not queried by keywords: %+v", secondary.gotQ)
	}
}

func TestFetchAllToleratesFailures(t *testing.T) {
	primary := &stubAdapter{id: "themuse", err: errors.New("down")}
	secondary := &stubAdapter{id: "wttj", offers: []domain.RawOffer{
		{Title: "Go Dev", Company: "Acme", URL: "https://b.example/1", Source: "wttj"},
	}}
	s := NewScraper(nil, primary, secondary, nil, 0, nil)

	raws := s.fetchAll(context.Background(), "Acme")
	if len(raws) != 1 {
		t.Fatalf("secondary results lost on primary failure: %+v", raws)
	}
}
