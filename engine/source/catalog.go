// Package source holds the static catalog of job sources, the adapter
// registry that binds catalog entries to fetch implementations, and the
// per-user source preference store.
package source

import "sort"

// Kind classifies a catalog entry.
type Kind string

const (
	// KindAggregator is a multi-company job board (API or HTML).
	KindAggregator Kind = "aggregator"
	// KindCareers is a single company's career page.
	KindCareers Kind = "careers"
)

// Descriptor is an immutable catalog entry for one job source.
type Descriptor struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	URL              string `json:"url"`
	Kind             Kind   `json:"kind"`
	AdapterKind      string `json:"adapter_kind"`
	Priority         int    `json:"priority"`
	EnabledByDefault bool   `json:"enabled_by_default"`
}

// Adapter kinds bound in the registry at startup.
const (
	AdapterRemoteOK    = "remoteok_api"
	AdapterAdzuna      = "adzuna_api"
	AdapterTheMuse     = "themuse_api"
	AdapterHackerNews  = "hn_algolia"
	AdapterWTTJ        = "wttj_html"
	AdapterCareersHTML = "careers_html"
)

// catalog is the deployed source set. Priority 1 entries are aggregators
// scraped synchronously on the request path; higher numbers are careers
// pages handled by the background batch unless the user promotes them.
var catalog = []Descriptor{
	{ID: "remoteok", DisplayName: "RemoteOK", URL: "https://remoteok.com/remote-jobs", Kind: KindAggregator, AdapterKind: AdapterRemoteOK, Priority: 1, EnabledByDefault: true},
	{ID: "wttj", DisplayName: "Welcome to the Jungle", URL: "https://www.welcometothejungle.com/fr/jobs", Kind: KindAggregator, AdapterKind: AdapterWTTJ, Priority: 1, EnabledByDefault: true},
	{ID: "adzuna", DisplayName: "Adzuna", URL: "https://www.adzuna.fr", Kind: KindAggregator, AdapterKind: AdapterAdzuna, Priority: 1, EnabledByDefault: true},
	{ID: "themuse", DisplayName: "The Muse", URL: "https://www.themuse.com/search", Kind: KindAggregator, AdapterKind: AdapterTheMuse, Priority: 2, EnabledByDefault: true},
	{ID: "hackernews", DisplayName: "Hacker News Who's Hiring", URL: "https://news.ycombinator.com/jobs", Kind: KindAggregator, AdapterKind: AdapterHackerNews, Priority: 2, EnabledByDefault: true},

	{ID: "capgemini", DisplayName: "Capgemini", URL: "https://www.capgemini.com/fr-fr/carrieres/", Kind: KindCareers, AdapterKind: AdapterCareersHTML, Priority: 2},
	{ID: "airbus", DisplayName: "Airbus", URL: "https://www.airbus.com/en/careers", Kind: KindCareers, AdapterKind: AdapterCareersHTML, Priority: 2},
	{ID: "thales", DisplayName: "Thales", URL: "https://www.thalesgroup.com/fr/carrieres", Kind: KindCareers, AdapterKind: AdapterCareersHTML, Priority: 2},
	{ID: "totalenergies", DisplayName: "TotalEnergies", URL: "https://www.totalenergies.com/fr/carrieres", Kind: KindCareers, AdapterKind: AdapterCareersHTML, Priority: 2},
	{ID: "renault", DisplayName: "Renault Group", URL: "https://www.renaultgroup.com/talents/", Kind: KindCareers, AdapterKind: AdapterCareersHTML, Priority: 2},
	{ID: "lvmh", DisplayName: "LVMH", URL: "https://www.lvmh.fr/talents/", Kind: KindCareers, AdapterKind: AdapterCareersHTML, Priority: 3},
	{ID: "bnp_paribas", DisplayName: "BNP Paribas", URL: "https://group.bnpparibas/emploi-carriere", Kind: KindCareers, AdapterKind: AdapterCareersHTML, Priority: 3},
	{ID: "orange", DisplayName: "Orange", URL: "https://careers.orange.com/", Kind: KindCareers, AdapterKind: AdapterCareersHTML, Priority: 3},
}

// All returns the full catalog, sorted by priority then ID.
func All() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Lookup returns the descriptor for id, or false when the id is not in the
// catalog.
func Lookup(id string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// DefaultEnabled returns the IDs of sources enabled for new users.
func DefaultEnabled() []string {
	var ids []string
	for _, d := range All() {
		if d.EnabledByDefault {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// TopPriority returns up to n source IDs in priority order, used to seed a
// new user's priority set.
func TopPriority(n int) []string {
	var ids []string
	for _, d := range All() {
		if !d.EnabledByDefault {
			continue
		}
		ids = append(ids, d.ID)
		if len(ids) == n {
			break
		}
	}
	return ids
}

// Aggregators returns the aggregator subset in priority order.
func Aggregators() []Descriptor {
	var out []Descriptor
	for _, d := range All() {
		if d.Kind == KindAggregator {
			out = append(out, d)
		}
	}
	return out
}
