// Package search orchestrates a job search: resolve the user's sources,
// consult the cache, fan out to the priority adapters, normalize, dedup,
// filter, persist, and cache the outcome.
package search

import (
	"time"

	"github.com/Kenfack-franck/jobHunterAi/engine/adapter"
	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

// Report is the full outcome of one search. The three counters are always
// present and distinct: ScrapedCount is pre-dedup, DeduplicatedCount is
// post-dedup, SavedCount is how many offers were newly persisted.
type Report struct {
	Success           bool                  `json:"success"`
	Message           string                `json:"message,omitempty"`
	Offers            []domain.Offer        `json:"offers"`
	Count             int                   `json:"count"`
	ScrapedCount      int                   `json:"scraped_count"`
	DeduplicatedCount int                   `json:"deduplicated_count"`
	SavedCount        int                   `json:"saved_count"`
	SourcesUsed       []string              `json:"sources_used"`
	SourceResults     []adapter.FetchResult `json:"-"`
	Cached            bool                  `json:"cached"`
	CacheHits         int                   `json:"cache_hits,omitempty"`
	DurationSeconds   float64               `json:"execution_time_seconds"`
	DeferredSources   []string              `json:"deferred_sources,omitempty"`
}

// Config tunes the orchestration.
type Config struct {
	// FanoutWorkers bounds how many priority adapters run concurrently.
	FanoutWorkers int
	// Budget bounds the whole synchronous phase; in-flight adapters are
	// cancelled at the deadline and partial results returned.
	Budget time.Duration
	// PerSourceTimeout bounds each individual adapter call.
	PerSourceTimeout time.Duration
	// MaxResultsPerSource caps what one adapter may contribute.
	MaxResultsPerSource int
	// DedupThreshold is the fuzzy signature similarity treated as duplicate.
	DedupThreshold float64
	// DisableBackground stops non-priority sources from being deferred to
	// the worker. They are still reported as deferred so callers can see
	// what was skipped.
	DisableBackground bool
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		FanoutWorkers:       4,
		Budget:              45 * time.Second,
		PerSourceTimeout:    adapter.DefaultFetchTimeout,
		MaxResultsPerSource: 50,
		DedupThreshold:      0,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FanoutWorkers <= 0 {
		c.FanoutWorkers = d.FanoutWorkers
	}
	if c.Budget <= 0 {
		c.Budget = d.Budget
	}
	if c.PerSourceTimeout <= 0 {
		c.PerSourceTimeout = d.PerSourceTimeout
	}
	if c.MaxResultsPerSource <= 0 {
		c.MaxResultsPerSource = d.MaxResultsPerSource
	}
	return c
}

// BatchJob is a deferred scrape for the enabled-but-non-priority sources,
// consumed by the background worker.
type BatchJob struct {
	UserID  string       `json:"user_id"`
	Query   domain.Query `json:"query"`
	Sources []string     `json:"sources"`
}

// BatchSubject is the NATS subject deferred batches travel on.
const BatchSubject = "search.batch"
