package search

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Kenfack-franck/jobHunterAi/engine/adapter"
	"github.com/Kenfack-franck/jobHunterAi/engine/cache"
	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/engine/ingest"
	"github.com/Kenfack-franck/jobHunterAi/engine/semantic"
	"github.com/Kenfack-franck/jobHunterAi/engine/source"
	"github.com/Kenfack-franck/jobHunterAi/pkg/ai"
	"github.com/Kenfack-franck/jobHunterAi/pkg/fn"
	"github.com/Kenfack-franck/jobHunterAi/pkg/metrics"
	"github.com/Kenfack-franck/jobHunterAi/pkg/resilience"
)

// PrefProvider yields a user's source preferences, creating defaults on
// first use.
type PrefProvider interface {
	GetOrCreate(ctx context.Context, userID string) (source.Preferences, error)
}

// CacheStore is the slice of the cache the engine needs.
type CacheStore interface {
	Get(ctx context.Context, key string) (*cache.Entry, bool, error)
	Put(ctx context.Context, e cache.Entry, ttl time.Duration) error
}

// OfferSaver persists offers and reports which were new.
type OfferSaver interface {
	SaveAll(ctx context.Context, userID string, offers []domain.Offer) ([]domain.Offer, error)
}

// BatchPublisher defers non-priority sources to the background worker.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, job BatchJob) error
}

// VectorUpserter stores offer embeddings.
type VectorUpserter interface {
	Upsert(ctx context.Context, vectors []semantic.OfferVector) error
}

// Engine executes searches. Cache, batch queue, embedder and vector store
// are optional; a nil dependency disables that concern and nothing else.
type Engine struct {
	cfg      Config
	prefs    PrefProvider
	registry *adapter.Registry
	cache    CacheStore
	offers   OfferSaver
	queue    BatchPublisher
	embedder ai.Client
	vectors  VectorUpserter
	dedup    ingest.Deduplicator
	log      *slog.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker

	searchesTotal   *metrics.Counter
	cacheHitsTotal  *metrics.Counter
	adapterFailures *metrics.Counter
	offersScraped   *metrics.Counter
	inFlight        *metrics.Gauge
	searchSeconds   *metrics.Histogram
}

// New wires an Engine. prefs, registry and offers are required.
func New(cfg Config, prefs PrefProvider, registry *adapter.Registry, cacheStore CacheStore, offers OfferSaver, queue BatchPublisher, embedder ai.Client, vectors VectorUpserter, reg *metrics.Registry, log *slog.Logger) *Engine {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		cfg:      cfg,
		prefs:    prefs,
		registry: registry,
		cache:    cacheStore,
		offers:   offers,
		queue:    queue,
		embedder: embedder,
		vectors:  vectors,
		dedup:    ingest.NewDeduplicator(cfg.DedupThreshold),
		log:      log,
		breakers: make(map[string]*resilience.Breaker),
	}
	if reg != nil {
		e.searchesTotal = reg.Counter("search_requests_total", "Total searches executed")
		e.cacheHitsTotal = reg.Counter("search_cache_hits_total", "Searches answered from cache")
		e.adapterFailures = reg.Counter("search_adapter_failures_total", "Adapter calls that returned an error")
		e.offersScraped = reg.Counter("search_offers_scraped_total", "Raw offers fetched across all sources")
		e.inFlight = reg.Gauge("searches_in_flight", "Searches currently running")
		e.searchSeconds = reg.Histogram("search_duration_seconds", "End-to-end search latency", nil)
	}
	return e
}

// Search runs the full orchestration for one user query.
func (e *Engine) Search(ctx context.Context, userID string, q domain.Query) (*Report, error) {
	start := time.Now()
	defer func() {
		if e.searchSeconds != nil {
			e.searchSeconds.Since(start)
		}
	}()
	if e.searchesTotal != nil {
		e.searchesTotal.Inc()
	}
	if e.inFlight != nil {
		e.inFlight.Inc()
		defer e.inFlight.Dec()
	}

	if err := domain.ValidateQuery(q); err != nil {
		return nil, err
	}

	prefs, err := e.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(prefs.EnabledSources) == 0 {
		return &Report{
			Success:         true,
			Message:         "No sources enabled. Enable at least one source in your settings.",
			Offers:          []domain.Offer{},
			SourcesUsed:     []string{},
			DurationSeconds: time.Since(start).Seconds(),
		}, nil
	}

	priority, deferred := partition(prefs)

	var key string
	if e.cache != nil && prefs.UseCache {
		key = cache.Key(userID, q, priority)
		if entry, hit, err := e.cache.Get(ctx, key); err != nil {
			e.log.Warn("cache read failed", "error", err)
		} else if hit {
			if e.cacheHitsTotal != nil {
				e.cacheHitsTotal.Inc()
			}
			return &Report{
				Success:           true,
				Offers:            entry.Results,
				Count:             len(entry.Results),
				ScrapedCount:      entry.ScrapedCount,
				DeduplicatedCount: entry.DeduplicatedCount,
				SourcesUsed:       entry.SourcesUsed,
				Cached:            true,
				CacheHits:         entry.HitCount,
				DurationSeconds:   time.Since(start).Seconds(),
			}, nil
		}
	}

	e.deferToBatch(ctx, userID, q, deferred)

	results := e.fanOut(ctx, q, priority)

	var raws []domain.RawOffer
	for _, r := range results {
		if r.Err != nil {
			if e.adapterFailures != nil {
				e.adapterFailures.Inc()
			}
			e.log.Warn("source fetch failed", "source", r.Source, "elapsed", r.Elapsed, "error", r.Err)
		}
		raws = append(raws, r.Offers...)
	}
	scraped := len(raws)
	if e.offersScraped != nil {
		e.offersScraped.Add(int64(scraped))
	}

	offers, deduplicated := e.process(ctx, q, raws)

	saved, err := e.offers.SaveAll(ctx, userID, offers)
	if err != nil {
		e.log.Warn("offer persistence failed", "error", err)
	}
	e.embedSaved(ctx, userID, saved)

	report := &Report{
		Success:           true,
		Offers:            offers,
		Count:             len(offers),
		ScrapedCount:      scraped,
		DeduplicatedCount: deduplicated,
		SavedCount:        len(saved),
		SourcesUsed:       priority,
		SourceResults:     results,
		DeferredSources:   deferred,
		DurationSeconds:   time.Since(start).Seconds(),
	}

	if e.cache != nil && prefs.UseCache {
		entry := cache.Entry{
			CacheKey:          key,
			UserID:            userID,
			Params:            q,
			SourcesUsed:       priority,
			Results:           offers,
			ScrapedCount:      scraped,
			DeduplicatedCount: deduplicated,
			ExecutionTimeSecs: report.DurationSeconds,
		}
		ttl := time.Duration(prefs.CacheTTLHours) * time.Hour
		if err := e.cache.Put(ctx, entry, ttl); err != nil {
			e.log.Warn("cache write failed", "error", err)
		}
	}
	return report, nil
}

// process runs the ingest pipeline over fetched raw offers: validate and
// normalize, then dedup, filter and order newest-first. The returned count
// is taken after dedup and before filters, so the report reflects how many
// distinct offers the sources produced regardless of the caller's criteria.
func (e *Engine) process(ctx context.Context, q domain.Query, raws []domain.RawOffer) ([]domain.Offer, int) {
	deduplicated := 0
	pipeline := fn.Then(
		fn.TracedStage("ingest.normalize", fn.Then(ingest.ValidStage, ingest.NormalizeStage)),
		fn.TracedStage("ingest.refine", fn.Pipeline(
			e.dedup.Stage(),
			fn.TapStage(func(_ context.Context, offers []domain.Offer) {
				deduplicated = len(offers)
			}),
			ingest.FilterStage(q),
			fn.MapStage(func(offers []domain.Offer) []domain.Offer {
				sort.SliceStable(offers, func(i, j int) bool {
					return offers[i].ScrapedAt.After(offers[j].ScrapedAt)
				})
				return offers
			}),
		)),
	)
	offers, _ := pipeline(ctx, raws).Unwrap()
	return offers, deduplicated
}

// RunBatch executes a deferred scrape for the background worker: fetch,
// normalize, dedup and persist, with no cache or report surface.
func (e *Engine) RunBatch(ctx context.Context, job BatchJob) (int, error) {
	results := e.fanOut(ctx, job.Query, job.Sources)

	var offers []domain.Offer
	for _, r := range results {
		if r.Err != nil {
			e.log.Warn("batch source fetch failed", "source", r.Source, "error", r.Err)
		}
		for _, raw := range r.Offers {
			if domain.ValidateRawOffer(raw) != nil {
				continue
			}
			offers = append(offers, ingest.Normalize(raw))
		}
	}
	offers = e.dedup.Dedup(offers)

	saved, err := e.offers.SaveAll(ctx, job.UserID, offers)
	if err != nil {
		return 0, err
	}
	e.embedSaved(ctx, job.UserID, saved)
	return len(saved), nil
}

// fanOut runs the selected sources through a bounded worker pool under the
// overall budget. Every selected source yields exactly one FetchResult.
func (e *Engine) fanOut(ctx context.Context, q domain.Query, sources []string) []adapter.FetchResult {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Budget)
	defer cancel()

	return fn.ParMap(sources, e.cfg.FanoutWorkers, func(id string) adapter.FetchResult {
		a, ok := e.registry.Resolve(id)
		if !ok {
			return adapter.FetchResult{Source: id, Err: domain.ErrUnknownSource}
		}

		var res adapter.FetchResult
		err := e.breaker(id).Call(ctx, func(ctx context.Context) error {
			res = adapter.SafeFetch(ctx, a, q, e.cfg.MaxResultsPerSource, e.cfg.PerSourceTimeout)
			return res.Err
		})
		if res.Source == "" {
			// Breaker rejected the call before the adapter ran.
			res = adapter.FetchResult{Source: id, Err: err}
		}
		return res
	})
}

// embedSaved generates embeddings for newly persisted offers, best effort.
// An embedding failure never fails the search.
func (e *Engine) embedSaved(ctx context.Context, userID string, saved []domain.Offer) {
	if e.embedder == nil || e.vectors == nil || len(saved) == 0 {
		return
	}
	var vectors []semantic.OfferVector
	for _, o := range saved {
		text := o.JobTitle + " " + o.CompanyName + " " + o.Description
		emb, err := e.embedder.Embed(ctx, text)
		if err != nil {
			e.log.Warn("offer embedding failed", "offer", o.ID, "error", err)
			continue
		}
		vectors = append(vectors, semantic.OfferVector{
			ID:        o.ID,
			Embedding: emb,
			Payload: map[string]any{
				"title":   o.JobTitle,
				"company": o.CompanyName,
				"source":  o.SourcePlatform,
				"user_id": userID,
			},
		})
	}
	if len(vectors) == 0 {
		return
	}
	if err := e.vectors.Upsert(ctx, vectors); err != nil {
		e.log.Warn("vector upsert failed", "error", err)
	}
}

func (e *Engine) deferToBatch(ctx context.Context, userID string, q domain.Query, deferred []string) {
	if e.queue == nil || e.cfg.DisableBackground || len(deferred) == 0 {
		return
	}
	job := BatchJob{UserID: userID, Query: q, Sources: deferred}
	if err := e.queue.PublishBatch(ctx, job); err != nil {
		e.log.Warn("batch deferral failed", "sources", deferred, "error", err)
	}
}

// breaker returns the per-source circuit breaker, creating it on first use.
func (e *Engine) breaker(sourceID string) *resilience.Breaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.breakers[sourceID]
	if !ok {
		b = resilience.NewBreaker(resilience.DefaultBreakerOpts)
		e.breakers[sourceID] = b
	}
	return b
}

// partition splits enabled sources into the synchronous priority set and
// the deferred remainder. A user with no priority set gets their first
// enabled sources promoted, up to the allowed maximum.
func partition(prefs source.Preferences) (priority, deferred []string) {
	enabled := make(map[string]bool, len(prefs.EnabledSources))
	for _, id := range prefs.EnabledSources {
		enabled[id] = true
	}

	for _, id := range prefs.PrioritySources {
		if enabled[id] {
			priority = append(priority, id)
		}
	}
	if len(priority) == 0 {
		for _, id := range prefs.EnabledSources {
			priority = append(priority, id)
			if len(priority) == source.MaxPrioritySources {
				break
			}
		}
	}

	inPriority := make(map[string]bool, len(priority))
	for _, id := range priority {
		inPriority[id] = true
	}
	for _, id := range prefs.EnabledSources {
		if !inPriority[id] {
			deferred = append(deferred, id)
		}
	}
	return priority, deferred
}
