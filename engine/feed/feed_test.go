package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/engine/semantic"
)

type stubEmbedder struct {
	emb []float32
	err error
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) { return s.emb, s.err }

func (s *stubEmbedder) GenerateText(context.Context, string) (string, error) { return "", nil }

type stubVectors struct {
	hits       []semantic.OfferHit
	err        error
	gotFilters map[string]string
}

func (s *stubVectors) SearchFiltered(_ context.Context, _ []float32, _ int, filters map[string]string) ([]semantic.OfferHit, error) {
	s.gotFilters = filters
	return s.hits, s.err
}

type stubOffers struct {
	offers []domain.Offer
	gotIDs []string
}

func (s *stubOffers) ByIDs(_ context.Context, ids []string) ([]domain.Offer, error) {
	s.gotIDs = ids
	return s.offers, nil
}

func TestFeedEmptyProfile(t *testing.T) {
	svc := New(&stubEmbedder{}, &stubVectors{}, &stubOffers{}, 0, nil)
	if _, err := svc.Feed(context.Background(), "u1", "   ", 10); !errors.Is(err, ErrEmptyProfile) {
		t.Fatalf("expected ErrEmptyProfile, got %v", err)
	}
}

func TestFeedScoresAndSorts(t *testing.T) {
	vectors := &stubVectors{hits: []semantic.OfferHit{
		{ID: "low", Score: 0.4},
		{ID: "high", Score: 0.9},
		{ID: "below", Score: 0.1},
	}}
	offers := &stubOffers{offers: []domain.Offer{
		{ID: "low", JobTitle: "Okay Match"},
		{ID: "high", JobTitle: "Great Match"},
	}}
	svc := New(&stubEmbedder{emb: []float32{0.1}}, vectors, offers, 0.3, nil)

	feed, err := svc.Feed(context.Background(), "u1", "go backend engineer", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The sub-threshold hit is dropped before the lookup.
	if len(offers.gotIDs) != 2 {
		t.Fatalf("lookup ids = %v", offers.gotIDs)
	}
	if len(feed) != 2 {
		t.Fatalf("feed size = %d", len(feed))
	}
	if feed[0].Offer.ID != "high" || feed[0].Score != 0.9 {
		t.Fatalf("not sorted by score: %+v", feed)
	}
	// The search must be scoped to the requesting user.
	if vectors.gotFilters["user_id"] != "u1" {
		t.Fatalf("missing user filter: %v", vectors.gotFilters)
	}
}

func TestFeedNoHitsAboveThreshold(t *testing.T) {
	vectors := &stubVectors{hits: []semantic.OfferHit{{ID: "x", Score: 0.05}}}
	svc := New(&stubEmbedder{emb: []float32{0.1}}, vectors, &stubOffers{}, 0.3, nil)

	feed, err := svc.Feed(context.Background(), "u1", "profile", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed == nil || len(feed) != 0 {
		t.Fatalf("expected empty non-nil feed, got %v", feed)
	}
}

func TestFeedEmbedFailure(t *testing.T) {
	svc := New(&stubEmbedder{err: errors.New("ollama down")}, &stubVectors{}, &stubOffers{}, 0, nil)
	if _, err := svc.Feed(context.Background(), "u1", "profile", 10); err == nil {
		t.Fatal("expected error")
	}
}
