package ingest

import (
	"strings"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/pkg/fn"
)

// ApplyFilters narrows a deduplicated offer set by the caller's criteria.
// Filters run after dedup so filtering never hides how many raw duplicates
// the sources actually produced. Empty criteria match everything.
func ApplyFilters(offers []domain.Offer, q domain.Query) []domain.Offer {
	out := offers

	if q.JobType != "" {
		want := strings.ToLower(q.JobType)
		out = fn.Filter(out, func(o domain.Offer) bool {
			return strings.ToLower(o.JobType) == want
		})
	}
	if q.WorkMode != "" {
		want := strings.ToLower(q.WorkMode)
		out = fn.Filter(out, func(o domain.Offer) bool {
			return strings.ToLower(o.WorkMode) == want
		})
	}
	if q.Company != "" {
		want := strings.ToLower(q.Company)
		out = fn.Filter(out, func(o domain.Offer) bool {
			return strings.Contains(strings.ToLower(o.CompanyName), want)
		})
	}
	return out
}

// FilterStage wraps ApplyFilters as a pipeline stage bound to a query.
func FilterStage(q domain.Query) fn.Stage[[]domain.Offer, []domain.Offer] {
	return fn.MapStage(func(offers []domain.Offer) []domain.Offer {
		return ApplyFilters(offers, q)
	})
}
