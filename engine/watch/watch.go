// Package watch mutualizes company monitoring: many users watching the same
// company share one watched entity and one periodic scrape.
package watch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

// ErrWatchNotFound is returned by RemoveWatch for an unknown watch id.
var ErrWatchNotFound = errors.New("watch not found")

// defaultFrequencyHours is how often a watched entity is rescraped unless
// configured otherwise.
const defaultFrequencyHours = 6

// Entity is one watched company, shared by every user watching it. It
// exists exactly while watcherCount > 0.
type Entity struct {
	ID                     string     `json:"id"`
	Slug                   string     `json:"slug"`
	CanonicalName          string     `json:"canonical_name"`
	WatcherCount           int        `json:"watcher_count"`
	LastScrapedAt          *time.Time `json:"last_scraped_at,omitempty"`
	ScrapingFrequencyHours int        `json:"scraping_frequency_hours"`
	TotalOffersFound       int        `json:"total_offers_found"`
	CreatedAt              time.Time  `json:"created_at"`
}

// UserWatch ties one user to one watched entity.
type UserWatch struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	EntityID       string    `json:"entity_id"`
	AlertThreshold int       `json:"alert_threshold"`
	ProfileID      string    `json:"profile_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// WatchView is a user's watch joined with its entity stats.
type WatchView struct {
	Watch  UserWatch `json:"watch"`
	Entity Entity    `json:"entity"`
}

// AddResult reports an AddWatch call. AlreadyWatching is true on repeat
// calls, which mutate nothing.
type AddResult struct {
	Watch           UserWatch `json:"watch"`
	Entity          Entity    `json:"entity"`
	AlreadyWatching bool      `json:"already_watching"`
}

// watchStore is the persistence slice Registry uses. pgStore implements it
// on PostgreSQL and tests substitute an in-memory version.
type watchStore interface {
	entityBySlug(ctx context.Context, slug string) (*Entity, error)
	createEntity(ctx context.Context, e Entity) error
	findWatch(ctx context.Context, userID, entityID string) (*UserWatch, error)
	insertWatch(ctx context.Context, w UserWatch) error
	deleteWatch(ctx context.Context, userID, watchID string) (entityID string, found bool, err error)
	addWatchers(ctx context.Context, entityID string, delta int) (int, error)
	deleteEntity(ctx context.Context, entityID string) error
	countWatches(ctx context.Context, userID string) (int, error)
	listWatches(ctx context.Context, userID string, offset, limit int) ([]WatchView, error)
	dueEntities(ctx context.Context, now time.Time) ([]Entity, error)
	anyWatcher(ctx context.Context, entityID string) (string, error)
	markScraped(ctx context.Context, entityID string, offersFound int, now time.Time) error
}

// Registry owns the watch lifecycle: entity mutualization, watcher
// counting, and deletion of entities nobody watches anymore.
type Registry struct {
	store watchStore
}

// NewRegistry returns a registry backed by the given pool.
func NewRegistry(pool *pgxpool.Pool) *Registry {
	return &Registry{store: &pgStore{pool: pool}}
}

// NewWithStore wires an explicit store, used by tests.
func NewWithStore(store watchStore) *Registry {
	return &Registry{store: store}
}

// AddWatch subscribes a user to a company. The entity is keyed by the slug
// of the legal-suffix-stripped company name, so "Google" and "Google Inc."
// converge on one entity. Repeat calls are idempotent and do not touch the
// counter.
func (r *Registry) AddWatch(ctx context.Context, userID, companyName string, alertThreshold int, profileID string) (*AddResult, error) {
	slug := EntitySlug(companyName)
	if slug == "" {
		return nil, domain.NewValidationError("company_name", companyName, domain.ErrOfferIncomplete)
	}

	entity, err := r.getOrCreateEntity(ctx, slug, companyName)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.findWatch(ctx, userID, entity.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AddResult{Watch: *existing, Entity: *entity, AlreadyWatching: true}, nil
	}

	w := UserWatch{
		ID:             uuid.NewString(),
		UserID:         userID,
		EntityID:       entity.ID,
		AlertThreshold: alertThreshold,
		ProfileID:      profileID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.store.insertWatch(ctx, w); err != nil {
		return nil, err
	}
	count, err := r.store.addWatchers(ctx, entity.ID, 1)
	if err != nil {
		return nil, err
	}
	entity.WatcherCount = count
	return &AddResult{Watch: w, Entity: *entity}, nil
}

// RemoveWatch unsubscribes a user. The entity's counter decrements with a
// floor of zero, and the entity itself is deleted the moment nobody watches
// it anymore.
func (r *Registry) RemoveWatch(ctx context.Context, userID, watchID string) error {
	entityID, found, err := r.store.deleteWatch(ctx, userID, watchID)
	if err != nil {
		return err
	}
	if !found {
		return ErrWatchNotFound
	}

	remaining, err := r.store.addWatchers(ctx, entityID, -1)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return r.store.deleteEntity(ctx, entityID)
	}
	return nil
}

// ListWatches returns a page of the user's watches with entity stats.
func (r *Registry) ListWatches(ctx context.Context, userID string, page, perPage int) ([]WatchView, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	total, err := r.store.countWatches(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	views, err := r.store.listWatches(ctx, userID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// DueEntities returns watched entities with at least one watcher whose last
// scrape is older than their frequency, or that were never scraped.
func (r *Registry) DueEntities(ctx context.Context, now time.Time) ([]Entity, error) {
	return r.store.dueEntities(ctx, now)
}

// AnyWatcher returns the user id of one arbitrary watcher of the entity.
// Persisted offers need an owner; which watcher owns them is not a
// correctness concern.
func (r *Registry) AnyWatcher(ctx context.Context, entityID string) (string, error) {
	return r.store.anyWatcher(ctx, entityID)
}

// MarkScraped updates scrape bookkeeping unconditionally, whether or not
// the run found anything new.
func (r *Registry) MarkScraped(ctx context.Context, entityID string, offersFound int, now time.Time) error {
	return r.store.markScraped(ctx, entityID, offersFound, now)
}

func (r *Registry) getOrCreateEntity(ctx context.Context, slug, canonicalName string) (*Entity, error) {
	e, err := r.store.entityBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if e != nil {
		return e, nil
	}

	create := Entity{
		ID:                     uuid.NewString(),
		Slug:                   slug,
		CanonicalName:          canonicalName,
		ScrapingFrequencyHours: defaultFrequencyHours,
		CreatedAt:              time.Now().UTC(),
	}
	if err := r.store.createEntity(ctx, create); err != nil {
		return nil, err
	}
	// Re-read rather than trust the insert: a concurrent AddWatch for the
	// same slug may have won the create.
	e, err = r.store.entityBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.New("watched entity vanished after create")
	}
	return e, nil
}
