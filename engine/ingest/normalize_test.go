package ingest

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/pkg/fn"
)

func TestNormalize(t *testing.T) {
	published := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	scraped := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	raw := domain.RawOffer{
		Title:       "  Senior Go Engineer ",
		Company:     " Acme ",
		Location:    " Paris ",
		Description: " Build things. ",
		URL:         " https://acme.io/jobs/42 ",
		JobType:     " FullTime ",
		WorkMode:    "Remote",
		Tags:        []string{"go", "grpc"},
		Source:      "remoteok",
		PublishedAt: published,
		ScrapedAt:   scraped,
	}

	got := Normalize(raw)
	want := domain.Offer{
		JobTitle:       "Senior Go Engineer",
		CompanyName:    "Acme",
		Location:       "Paris",
		Description:    "Build things.",
		SourceURL:      "https://acme.io/jobs/42",
		SourcePlatform: "remoteok",
		JobType:        "fulltime",
		WorkMode:       "remote",
		Tags:           []string{"go", "grpc"},
		PublishedAt:    published,
		ScrapedAt:      scraped,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Normalize mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestNormalizeDefaultsScrapedAt(t *testing.T) {
	got := Normalize(domain.RawOffer{Title: "Dev", Company: "X", URL: "https://x.io/1"})
	if got.ScrapedAt.IsZero() {
		t.Fatal("ScrapedAt not defaulted")
	}
	if time.Since(got.ScrapedAt) > time.Minute {
		t.Fatalf("ScrapedAt too old: %v", got.ScrapedAt)
	}
}

func TestRenormalizeIdempotent(t *testing.T) {
	o := domain.Offer{
		JobTitle:    "  Dev ",
		CompanyName: "Acme  ",
		JobType:     "FULLTIME",
		WorkMode:    " Remote",
		SourceURL:   " https://x.io/1",
	}
	once := Renormalize(o)
	twice := Renormalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Renormalize not idempotent:\n once %+v\ntwice %+v", once, twice)
	}
	if once.JobType != "fulltime" || once.WorkMode != "remote" {
		t.Fatalf("coercions missing: %+v", once)
	}
}

func TestNormalizeAll(t *testing.T) {
	raws := []domain.RawOffer{
		{Title: "A", Company: "X", URL: "https://x.io/1"},
		{Title: "B", Company: "Y", URL: "https://y.io/2"},
	}
	out := NormalizeAll(raws)
	if len(out) != 2 || out[0].JobTitle != "A" || out[1].JobTitle != "B" {
		t.Fatalf("unexpected batch result: %+v", out)
	}
}

func TestValidStageDropsInvalid(t *testing.T) {
	raws := []domain.RawOffer{
		{Title: "Go Engineer", Company: "Acme", URL: "https://acme.io/jobs/1"},
		{Title: "", Company: "Acme", URL: "https://acme.io/jobs/2"},
		{Title: "Data Engineer", Company: "Globex", URL: "not a url"},
	}

	pipeline := fn.Then(ValidStage, NormalizeStage)
	out, err := pipeline(context.Background(), raws).Unwrap()
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if len(out) != 1 || out[0].JobTitle != "Go Engineer" {
		t.Fatalf("expected only the valid offer, got %+v", out)
	}
}
