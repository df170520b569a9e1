package watch

import "testing"

func TestNormalizeCompanyName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Google", "google"},
		{"Google Inc.", "google"},
		{"Google Incorporated", "google"},
		{"ACME Corp", "acme"},
		{"Acme Corporation", "acme"},
		{"Dassault Systèmes SA", "dassault systèmes"},
		{"Renault Group", "renault"},
		{"Siemens AG", "siemens"},
		{"Philips NV", "philips"},
		{"Some Co., Ltd.", "some co"},
		{"  Spaced   Out  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCompanyName(tt.in); got != tt.want {
			t.Errorf("NormalizeCompanyName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompanyMatches(t *testing.T) {
	tests := []struct {
		name           string
		watched, offer string
		want           bool
	}{
		{"exact", "Google", "Google", true},
		{"legal suffix", "Google", "Google Inc.", true},
		{"case", "google", "GOOGLE", true},
		{"substring", "BNP", "BNP Paribas", true},
		{"substring reversed", "BNP Paribas", "BNP", true},
		{"near spelling", "Welcome to the Jungle", "Welcome to the Jungel", true},
		{"different company", "Google", "Globex", false},
		{"empty watched", "", "Google", false},
		{"empty offer", "Google", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompanyMatches(tt.watched, tt.offer, DefaultCompanyMatchThreshold); got != tt.want {
				t.Fatalf("CompanyMatches(%q, %q) = %v, want %v", tt.watched, tt.offer, got, tt.want)
			}
		})
	}
}

func TestCompanyMatchesThreshold(t *testing.T) {
	// "acme corp" normalizes to "acme"; "acne" is one edit away (0.75).
	if !CompanyMatches("Acme Corp", "Acne", 0.75) {
		t.Fatal("expected match at threshold")
	}
	if CompanyMatches("Acme Corp", "Acne", 0.8) {
		t.Fatal("expected no match above similarity")
	}
}

func TestEntitySlugConvergesLegalVariants(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"inc suffix", "Google", "Google Inc."},
		{"case and corp", "ACME Corp.", "acme"},
		{"gmbh", "Siemens GmbH", "Siemens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if EntitySlug(tt.a) != EntitySlug(tt.b) {
				t.Fatalf("EntitySlug(%q) = %q, EntitySlug(%q) = %q, want equal",
					tt.a, EntitySlug(tt.a), tt.b, EntitySlug(tt.b))
			}
		})
	}
	if got := EntitySlug("Google Inc."); got != "google" {
		t.Fatalf("EntitySlug = %q, want %q", got, "google")
	}
}
