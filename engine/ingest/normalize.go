// Package ingest provides the post-fetch pipeline that turns adapter output
// into the canonical offer set: normalization, deduplication, and filtering.
package ingest

import (
	"strings"
	"time"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/pkg/fn"
)

// Normalize maps an adapter-native RawOffer onto the canonical Offer shape.
// Pure field renaming and coercion only: strings trimmed, job type and work
// mode lowercased, missing fields stay empty. No I/O, no business logic.
func Normalize(raw domain.RawOffer) domain.Offer {
	scrapedAt := raw.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}
	return domain.Offer{
		JobTitle:       strings.TrimSpace(raw.Title),
		CompanyName:    strings.TrimSpace(raw.Company),
		Location:       strings.TrimSpace(raw.Location),
		Description:    strings.TrimSpace(raw.Description),
		SourceURL:      strings.TrimSpace(raw.URL),
		SourcePlatform: raw.Source,
		JobType:        strings.ToLower(strings.TrimSpace(raw.JobType)),
		WorkMode:       strings.ToLower(strings.TrimSpace(raw.WorkMode)),
		Tags:           raw.Tags,
		PublishedAt:    raw.PublishedAt,
		ScrapedAt:      scrapedAt,
	}
}

// NormalizeAll maps a batch. Normalizing an already-normalized offer via
// Renormalize is a no-op.
func NormalizeAll(raws []domain.RawOffer) []domain.Offer {
	return fn.Map(raws, Normalize)
}

// Renormalize re-applies the canonical coercions to an Offer. Idempotent:
// Renormalize(Renormalize(o)) == Renormalize(o).
func Renormalize(o domain.Offer) domain.Offer {
	o.JobTitle = strings.TrimSpace(o.JobTitle)
	o.CompanyName = strings.TrimSpace(o.CompanyName)
	o.Location = strings.TrimSpace(o.Location)
	o.Description = strings.TrimSpace(o.Description)
	o.SourceURL = strings.TrimSpace(o.SourceURL)
	o.JobType = strings.ToLower(strings.TrimSpace(o.JobType))
	o.WorkMode = strings.ToLower(strings.TrimSpace(o.WorkMode))
	return o
}

// NormalizeStage wraps NormalizeAll as a pipeline stage.
var NormalizeStage fn.Stage[[]domain.RawOffer, []domain.Offer] = fn.MapStage(NormalizeAll)

// ValidStage drops raw offers that fail structural validation, so that
// NormalizeStage only ever sees offers worth keeping.
var ValidStage fn.Stage[[]domain.RawOffer, []domain.RawOffer] = fn.MapStage(func(raws []domain.RawOffer) []domain.RawOffer {
	return fn.Filter(raws, func(r domain.RawOffer) bool {
		return domain.ValidateRawOffer(r) == nil
	})
})
