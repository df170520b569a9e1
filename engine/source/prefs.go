package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxPrioritySources caps how many sources a user may scrape synchronously
// on the request path.
const MaxPrioritySources = 3

// Default cache TTL applied to lazily created preferences.
const defaultCacheTTLHours = 1

// Preferences is a user's 1:1 source configuration. It is created lazily on
// first search with system defaults and mutated only through Update.
type Preferences struct {
	UserID          string    `json:"user_id"`
	EnabledSources  []string  `json:"enabled_sources"`
	PrioritySources []string  `json:"priority_sources"`
	UseCache        bool      `json:"use_cache"`
	CacheTTLHours   int       `json:"cache_ttl_hours"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultPreferences returns the system defaults for a new user: every
// enabled-by-default source, with the top sources by priority promoted to
// the synchronous set.
func DefaultPreferences(userID string) Preferences {
	now := time.Now().UTC()
	return Preferences{
		UserID:          userID,
		EnabledSources:  DefaultEnabled(),
		PrioritySources: TopPriority(MaxPrioritySources),
		UseCache:        true,
		CacheTTLHours:   defaultCacheTTLHours,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// PrefStore persists Preferences in PostgreSQL.
type PrefStore struct {
	pool *pgxpool.Pool
}

// NewPrefStore returns a store backed by the given pool.
func NewPrefStore(pool *pgxpool.Pool) *PrefStore {
	return &PrefStore{pool: pool}
}

// GetOrCreate returns the user's preferences, inserting system defaults on
// first use. The insert is race-safe: a concurrent first search loses the
// insert and reads the winner's row.
func (s *PrefStore) GetOrCreate(ctx context.Context, userID string) (Preferences, error) {
	p, err := s.get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Preferences{}, err
	}

	p = DefaultPreferences(userID)
	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_source_preferences
		   (user_id, enabled_sources, priority_sources, use_cache, cache_ttl_hours, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO NOTHING`,
		p.UserID, p.EnabledSources, p.PrioritySources, p.UseCache, p.CacheTTLHours, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return Preferences{}, fmt.Errorf("insert default preferences: %w", err)
	}
	return s.get(ctx, userID)
}

// Update replaces the mutable fields of a user's preferences. Priority
// sources beyond MaxPrioritySources or not present in enabledSources are
// rejected.
func (s *PrefStore) Update(ctx context.Context, p Preferences) error {
	if len(p.PrioritySources) > MaxPrioritySources {
		return fmt.Errorf("at most %d priority sources allowed, got %d", MaxPrioritySources, len(p.PrioritySources))
	}
	enabled := make(map[string]bool, len(p.EnabledSources))
	for _, id := range p.EnabledSources {
		if _, ok := Lookup(id); !ok {
			return fmt.Errorf("unknown source id %q", id)
		}
		enabled[id] = true
	}
	for _, id := range p.PrioritySources {
		if !enabled[id] {
			return fmt.Errorf("priority source %q is not enabled", id)
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE user_source_preferences
		 SET enabled_sources = $2, priority_sources = $3, use_cache = $4,
		     cache_ttl_hours = $5, updated_at = now()
		 WHERE user_id = $1`,
		p.UserID, p.EnabledSources, p.PrioritySources, p.UseCache, p.CacheTTLHours,
	)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PrefStore) get(ctx context.Context, userID string) (Preferences, error) {
	var p Preferences
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, enabled_sources, priority_sources, use_cache,
		        cache_ttl_hours, created_at, updated_at
		 FROM user_source_preferences WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.EnabledSources, &p.PrioritySources, &p.UseCache,
		&p.CacheTTLHours, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Preferences{}, err
	}
	return p, nil
}
