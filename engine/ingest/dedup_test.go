package ingest

import (
	"reflect"
	"testing"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

func offer(title, company, url string) domain.Offer {
	return domain.Offer{JobTitle: title, CompanyName: company, SourceURL: url}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "golang developer|acme", "golang developer|acme", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "abc", "", 0.0},
		{"disjoint", "abcd", "wxyz", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); got != tt.want {
				t.Fatalf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatioNearMatch(t *testing.T) {
	// One substitution in a 30-char string stays above 0.9.
	a := "senior golang developer|acme a"
	b := "senior golang developer|acme b"
	if got := Ratio(a, b); got < 0.9 {
		t.Fatalf("Ratio = %v, expected >= 0.9", got)
	}

	// Different companies with short signatures fall below the threshold.
	if got := Ratio("dev|acme", "dev|zerg"); got >= 0.9 {
		t.Fatalf("Ratio = %v, expected < 0.9", got)
	}
}

func TestRatioSymmetric(t *testing.T) {
	a, b := "backend engineer|globex", "backend enginer|globex"
	if Ratio(a, b) != Ratio(b, a) {
		t.Fatalf("Ratio not symmetric: %v vs %v", Ratio(a, b), Ratio(b, a))
	}
}

func TestSignature(t *testing.T) {
	o := offer("  Senior Engineer ", " ACME Corp ", "https://x.io/1")
	if got, want := Signature(o), "senior engineer|acme corp"; got != want {
		t.Fatalf("Signature = %q, want %q", got, want)
	}
}

func TestDedupExactURL(t *testing.T) {
	d := NewDeduplicator(0)
	in := []domain.Offer{
		offer("Go Developer", "Acme", "https://remoteok.com/jobs/1"),
		offer("Golang Engineer", "Acme", "https://remoteok.com/jobs/1"),
		offer("Rust Developer", "Globex", "https://adzuna.fr/jobs/9"),
	}
	out := d.Dedup(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(out))
	}
	// First occurrence wins.
	if out[0].JobTitle != "Go Developer" {
		t.Fatalf("expected first occurrence kept, got %q", out[0].JobTitle)
	}
}

func TestDedupFuzzySignature(t *testing.T) {
	d := NewDeduplicator(0.9)
	in := []domain.Offer{
		offer("Senior Backend Engineer (Go)", "Spotify", "https://a.example/1"),
		offer("Senior Backend Engineer (Go)", "Spotify", "https://b.example/2"),
		offer("Frontend Developer React", "Spotify", "https://c.example/3"),
	}
	out := d.Dedup(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(out))
	}
	if out[0].SourceURL != "https://a.example/1" {
		t.Fatalf("expected first URL kept, got %q", out[0].SourceURL)
	}
}

func TestDedupMixedBatch(t *testing.T) {
	// 7 distinct listings hiding in 10 offers: one exact URL duplicate and
	// two fuzzy duplicates across sources.
	in := []domain.Offer{
		offer("Go Developer", "Acme", "https://remoteok.com/jobs/1"),
		offer("Go Developer", "Acme", "https://remoteok.com/jobs/1"), // exact dup
		offer("Go Developer", "Acme", "https://adzuna.fr/jobs/77"),   // fuzzy dup, other source
		offer("Data Engineer", "Globex", "https://remoteok.com/jobs/2"),
		offer("Data  Engineer", "Globex", "https://themuse.com/j/5"), // fuzzy dup (near signature)
		offer("SRE", "Initech", "https://remoteok.com/jobs/3"),
		offer("Product Manager", "Initech", "https://remoteok.com/jobs/4"),
		offer("iOS Developer", "Hooli", "https://remoteok.com/jobs/5"),
		offer("Android Developer", "Hooli", "https://remoteok.com/jobs/6"),
		offer("QA Engineer", "Umbrella", "https://remoteok.com/jobs/7"),
	}
	out := NewDeduplicator(0.9).Dedup(in)
	if len(out) != 7 {
		t.Fatalf("expected 7 offers, got %d", len(out))
	}
}

func TestDedupThresholdBoundary(t *testing.T) {
	a := offer("aaaaaaaaab", "x", "https://u.example/1")
	b := offer("aaaaaaaaaa", "x", "https://u.example/2")
	// Signatures are 12 bytes apart by one edit: ratio = 1 - 1/12 ≈ 0.917.
	sim := Ratio(Signature(a), Signature(b))

	if got := (Deduplicator{Threshold: sim}).Dedup([]domain.Offer{a, b}); len(got) != 1 {
		t.Fatalf("at threshold: expected collapse to 1, got %d", len(got))
	}
	if got := (Deduplicator{Threshold: sim + 0.001}).Dedup([]domain.Offer{a, b}); len(got) != 2 {
		t.Fatalf("above similarity: expected both kept, got %d", len(got))
	}
}

func TestDedupEmptyURLsNotCollapsed(t *testing.T) {
	in := []domain.Offer{
		offer("Go Developer", "Acme", ""),
		offer("Staff Accountant", "Globex", ""),
	}
	out := NewDeduplicator(0.9).Dedup(in)
	if len(out) != 2 {
		t.Fatalf("offers without URLs were collapsed, got %d", len(out))
	}
}

func TestDedupEmptyInput(t *testing.T) {
	if out := NewDeduplicator(0.9).Dedup(nil); out != nil {
		t.Fatalf("expected nil, got %v", out)
	}
}

func TestNewDeduplicatorDefaults(t *testing.T) {
	for _, bad := range []float64{0, -1, 1.5} {
		if d := NewDeduplicator(bad); d.Threshold != DefaultDedupThreshold {
			t.Fatalf("NewDeduplicator(%v).Threshold = %v", bad, d.Threshold)
		}
	}
	if d := NewDeduplicator(0.8); d.Threshold != 0.8 {
		t.Fatalf("explicit threshold not kept: %v", d.Threshold)
	}
}

func TestDedupIdempotent(t *testing.T) {
	in := []domain.Offer{
		offer("Go Developer", "Acme", "https://acme.io/jobs/1"),
		offer("Go Developer", "Acme", "https://acme.io/jobs/1"),
		offer("Senior Golang Developer", "Acme A", "https://boards.example/1"),
		offer("Senior Golang Developer", "Acme B", "https://boards.example/2"),
		offer("Staff Accountant", "Globex", "https://globex.io/jobs/7"),
	}
	d := NewDeduplicator(0.9)

	once := d.Dedup(in)
	twice := d.Dedup(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedup of its own output changed the set:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if len(twice) >= len(in) {
		t.Fatalf("expected the fixture duplicates to collapse, got %d of %d", len(twice), len(in))
	}
}
