package ingest

import (
	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/pkg/fn"
)

// DefaultDedupThreshold is the signature similarity at or above which two
// offers are considered the same listing. Tunable; no derivation exists for
// the value beyond observed duplicate rates.
const DefaultDedupThreshold = 0.9

// Deduplicator removes duplicate offers from a single aggregation run.
type Deduplicator struct {
	// Threshold is the fuzzy-match cutoff in [0,1].
	Threshold float64
}

// NewDeduplicator creates a Deduplicator, defaulting the threshold.
func NewDeduplicator(threshold float64) Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultDedupThreshold
	}
	return Deduplicator{Threshold: threshold}
}

// Dedup drops duplicates in two passes, first occurrence winning. Input order
// is adapter fan-out order, which is not stable across runs, so the winner of
// a duplicate pair is not deterministic between runs.
//
//  1. Exact: same SourceURL as an already-kept offer.
//  2. Fuzzy: signature (lowercase "title|company") similarity against every
//     kept signature at or above Threshold.
//
// The fuzzy pass is O(n²); fine for the low hundreds of offers a request
// produces. Bucket by the first word of the title before comparing if batch
// sizes ever grow past that.
func (d Deduplicator) Dedup(offers []domain.Offer) []domain.Offer {
	if len(offers) == 0 {
		return nil
	}

	// Offers without a URL cannot exact-match; fn.UniqueBy would collapse
	// them all onto the empty key, so they bypass the first pass.
	seenURL := make(map[string]struct{}, len(offers))
	byURL := fn.Filter(offers, func(o domain.Offer) bool {
		if o.SourceURL == "" {
			return true
		}
		if _, ok := seenURL[o.SourceURL]; ok {
			return false
		}
		seenURL[o.SourceURL] = struct{}{}
		return true
	})

	kept := make([]domain.Offer, 0, len(byURL))
	sigs := make([]string, 0, len(byURL))

	for _, o := range byURL {
		sig := Signature(o)
		dup := false
		for _, existing := range sigs {
			if Ratio(sig, existing) >= d.Threshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, o)
		sigs = append(sigs, sig)
	}
	return kept
}

// Stage wraps Dedup as a pipeline stage.
func (d Deduplicator) Stage() fn.Stage[[]domain.Offer, []domain.Offer] {
	return fn.MapStage(d.Dedup)
}
