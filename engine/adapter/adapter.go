// Package adapter contains the per-source fetch implementations and the
// contract they all satisfy. Adapters translate one site's native shape into
// domain.RawOffer and absorb their own failures: a broken page or a 5xx
// yields whatever partial results were already parsed, plus an error for the
// caller's report, never a panic across the fan-out boundary.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

// Adapter fetches raw offers for one source.
type Adapter interface {
	// ID is the catalog source id this adapter serves.
	ID() string
	// Fetch returns up to maxResults raw offers matching q. Partial results
	// alongside a non-nil error are valid: the caller keeps the offers and
	// reports the error.
	Fetch(ctx context.Context, q domain.Query, maxResults int) ([]domain.RawOffer, error)
}

// FetchResult is one source's contribution to a fan-out.
type FetchResult struct {
	Source  string
	Offers  []domain.RawOffer
	Err     error
	Elapsed time.Duration
}

// DefaultFetchTimeout bounds a single adapter call.
const DefaultFetchTimeout = 20 * time.Second

// SafeFetch runs a.Fetch under its own deadline and converts panics into
// errors, so one misbehaving adapter can never abort the fan-out.
func SafeFetch(ctx context.Context, a Adapter, q domain.Query, maxResults int, timeout time.Duration) (res FetchResult) {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res.Source = a.ID()
	defer func() {
		res.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("adapter %s panicked: %v", a.ID(), r)
		}
	}()

	res.Offers, res.Err = a.Fetch(ctx, q, maxResults)
	return res
}

// Registry resolves catalog source IDs to adapter instances. It is built
// once at startup and read-only afterwards.
type Registry struct {
	byID map[string]Adapter
}

// NewRegistry returns a registry over the given adapters, keyed by ID.
// A duplicate ID is a wiring bug and overwrites the earlier entry.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byID: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.byID[a.ID()] = a
	}
	return r
}

// Resolve returns the adapter registered for the source id.
func (r *Registry) Resolve(id string) (Adapter, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// IDs returns every registered source id.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}
