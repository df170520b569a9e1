package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

// payloadVersion guards the serialized results column. A version bump makes
// old rows read as misses instead of decoding garbage into new fields.
const payloadVersion = 1

type payload struct {
	Version int            `json:"v"`
	Offers  []domain.Offer `json:"offers"`
}

// Entry is one cached search result set.
type Entry struct {
	CacheKey          string         `json:"cache_key"`
	UserID            string         `json:"user_id"`
	Params            domain.Query   `json:"params"`
	SourcesUsed       []string       `json:"sources_used"`
	Results           []domain.Offer `json:"results"`
	ResultsCount      int            `json:"results_count"`
	ScrapedCount      int            `json:"scraped_count"`
	DeduplicatedCount int            `json:"deduplicated_count"`
	ExecutionTimeSecs float64        `json:"execution_time_seconds"`
	CreatedAt         time.Time      `json:"created_at"`
	ExpiresAt         time.Time      `json:"expires_at"`
	HitCount          int            `json:"hit_count"`
	IsValid           bool           `json:"is_valid"`
}

// Row is the persisted form of an entry: params and results are serialized.
type Row struct {
	CacheKey          string
	UserID            string
	Params            []byte
	SourcesUsed       []string
	Results           []byte
	ResultsCount      int
	ScrapedCount      int
	DeduplicatedCount int
	ExecutionTimeSecs float64
	CreatedAt         time.Time
	ExpiresAt         time.Time
	HitCount          int
	IsValid           bool
}

// rowStore is the persistence slice Store uses. pgRows implements it on
// PostgreSQL and tests substitute an in-memory map.
type rowStore interface {
	fetch(ctx context.Context, key string) (*Row, error)
	bumpHit(ctx context.Context, key string) (int, error)
	upsert(ctx context.Context, r Row) error
	deleteKey(ctx context.Context, key string) (int64, error)
	deleteUser(ctx context.Context, userID string) (int64, error)
	deleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store reads and writes cache entries. The zero time source is the system
// clock; tests inject a fixed one.
type Store struct {
	rows rowStore
	now  func() time.Time
}

// NewStore returns a store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{rows: &pgRows{pool: pool}, now: time.Now}
}

// NewWithRows wires an explicit row store, used by tests.
func NewWithRows(rows rowStore) *Store {
	return &Store{rows: rows, now: time.Now}
}

// Get returns the entry for key when it is valid and unexpired, bumping its
// hit counter. A stale, invalidated, or absent entry is a miss, not an
// error.
func (s *Store) Get(ctx context.Context, key string) (*Entry, bool, error) {
	row, err := s.rows.fetch(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if row == nil || !row.IsValid || !row.ExpiresAt.After(s.now().UTC()) {
		return nil, false, nil
	}

	e := Entry{
		CacheKey:          row.CacheKey,
		UserID:            row.UserID,
		SourcesUsed:       row.SourcesUsed,
		ResultsCount:      row.ResultsCount,
		ScrapedCount:      row.ScrapedCount,
		DeduplicatedCount: row.DeduplicatedCount,
		ExecutionTimeSecs: row.ExecutionTimeSecs,
		CreatedAt:         row.CreatedAt,
		ExpiresAt:         row.ExpiresAt,
		IsValid:           row.IsValid,
	}
	if err := json.Unmarshal(row.Params, &e.Params); err != nil {
		return nil, false, fmt.Errorf("cache get: decoding params: %w", err)
	}
	var p payload
	if err := json.Unmarshal(row.Results, &p); err != nil || p.Version != payloadVersion {
		// Unreadable or older-format rows are treated as misses.
		return nil, false, nil
	}
	e.Results = p.Offers

	hits, err := s.rows.bumpHit(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	e.HitCount = hits
	return &e, true, nil
}

// Put upserts the entry under its key with the given TTL. A re-save of an
// existing key supersedes the old row: results, counters and expiry are
// replaced and the hit counter restarts at zero.
func (s *Store) Put(ctx context.Context, e Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache put: non-positive ttl %v", ttl)
	}
	now := s.now().UTC()

	params, err := json.Marshal(e.Params)
	if err != nil {
		return fmt.Errorf("cache put: encoding params: %w", err)
	}
	results, err := json.Marshal(payload{Version: payloadVersion, Offers: e.Results})
	if err != nil {
		return fmt.Errorf("cache put: encoding results: %w", err)
	}

	row := Row{
		CacheKey:          e.CacheKey,
		UserID:            e.UserID,
		Params:            params,
		SourcesUsed:       e.SourcesUsed,
		Results:           results,
		ResultsCount:      len(e.Results),
		ScrapedCount:      e.ScrapedCount,
		DeduplicatedCount: e.DeduplicatedCount,
		ExecutionTimeSecs: e.ExecutionTimeSecs,
		CreatedAt:         now,
		ExpiresAt:         now.Add(ttl),
		HitCount:          0,
		IsValid:           true,
	}
	if err := s.rows.upsert(ctx, row); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// InvalidateKey deletes one entry. Returns how many rows were removed.
func (s *Store) InvalidateKey(ctx context.Context, key string) (int64, error) {
	n, err := s.rows.deleteKey(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("cache invalidate key: %w", err)
	}
	return n, nil
}

// InvalidateUser deletes every entry owned by the user.
func (s *Store) InvalidateUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.rows.deleteUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("cache invalidate user: %w", err)
	}
	return n, nil
}

// SweepExpired removes entries past their expiry. Run periodically by the
// worker.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.rows.deleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	return n, nil
}

// pgRows persists rows in the search_cache table.
type pgRows struct {
	pool *pgxpool.Pool
}

func (p *pgRows) fetch(ctx context.Context, key string) (*Row, error) {
	var r Row
	err := p.pool.QueryRow(ctx,
		`SELECT cache_key, user_id, params, sources_used, results,
		        results_count, scraped_count, deduplicated_count,
		        execution_time_seconds, created_at, expires_at, hit_count, is_valid
		 FROM search_cache WHERE cache_key = $1`,
		key,
	).Scan(&r.CacheKey, &r.UserID, &r.Params, &r.SourcesUsed, &r.Results,
		&r.ResultsCount, &r.ScrapedCount, &r.DeduplicatedCount,
		&r.ExecutionTimeSecs, &r.CreatedAt, &r.ExpiresAt, &r.HitCount, &r.IsValid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *pgRows) bumpHit(ctx context.Context, key string) (int, error) {
	var hits int
	err := p.pool.QueryRow(ctx,
		`UPDATE search_cache SET hit_count = hit_count + 1
		 WHERE cache_key = $1 RETURNING hit_count`,
		key,
	).Scan(&hits)
	if err != nil {
		return 0, err
	}
	return hits, nil
}

func (p *pgRows) upsert(ctx context.Context, r Row) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO search_cache
		   (cache_key, user_id, params, sources_used, results, results_count,
		    scraped_count, deduplicated_count, execution_time_seconds,
		    created_at, expires_at, hit_count, is_valid)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, TRUE)
		 ON CONFLICT (cache_key) DO UPDATE SET
		   user_id = EXCLUDED.user_id,
		   params = EXCLUDED.params,
		   sources_used = EXCLUDED.sources_used,
		   results = EXCLUDED.results,
		   results_count = EXCLUDED.results_count,
		   scraped_count = EXCLUDED.scraped_count,
		   deduplicated_count = EXCLUDED.deduplicated_count,
		   execution_time_seconds = EXCLUDED.execution_time_seconds,
		   expires_at = EXCLUDED.expires_at,
		   hit_count = 0,
		   is_valid = TRUE`,
		r.CacheKey, r.UserID, r.Params, r.SourcesUsed, r.Results, r.ResultsCount,
		r.ScrapedCount, r.DeduplicatedCount, r.ExecutionTimeSecs,
		r.CreatedAt, r.ExpiresAt,
	)
	return err
}

func (p *pgRows) deleteKey(ctx context.Context, key string) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM search_cache WHERE cache_key = $1`, key)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *pgRows) deleteUser(ctx context.Context, userID string) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM search_cache WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *pgRows) deleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM search_cache WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
