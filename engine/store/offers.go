// Package store persists normalized offers. Saves are idempotent on
// source_url: an offer already known to the system is never inserted twice,
// whichever code path (search, watch scrape, background batch) found it.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

// seenTTL bounds how long a URL stays in the Redis fast-path guard. The
// database unique check remains authoritative after expiry.
const seenTTL = 24 * time.Hour

// Store writes offers to PostgreSQL, with an optional Redis guard that
// short-circuits URLs seen recently without touching the database.
type Store struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  *slog.Logger
}

// New returns a store. rdb may be nil; the guard is then skipped entirely.
func New(pool *pgxpool.Pool, rdb *redis.Client, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{pool: pool, rdb: rdb, log: log}
}

// SaveAll persists offers for a user, skipping any whose source_url is
// already known. It returns the offers actually inserted, each with its
// assigned ID. A failure on one offer is logged and does not stop the rest.
func (s *Store) SaveAll(ctx context.Context, userID string, offers []domain.Offer) ([]domain.Offer, error) {
	var saved []domain.Offer
	for _, o := range offers {
		if o.SourceURL == "" {
			continue
		}
		if s.seenRecently(ctx, o.SourceURL) {
			continue
		}

		o.ID = uuid.NewString()
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO offers
			   (id, user_id, job_title, company_name, location, description,
			    source_url, source_platform, job_type, work_mode, tags,
			    published_at, scraped_at, created_at)
			 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now()
			 WHERE NOT EXISTS (
			   SELECT 1 FROM offers WHERE source_url = $7
			 )`,
			o.ID, userID, o.JobTitle, o.CompanyName, o.Location, o.Description,
			o.SourceURL, o.SourcePlatform, nullable(o.JobType), nullable(o.WorkMode),
			o.Tags, nullableTime(o.PublishedAt), o.ScrapedAt,
		)
		if err != nil {
			s.log.Warn("offer insert failed", "url", o.SourceURL, "error", err)
			continue
		}
		if tag.RowsAffected() == 1 {
			saved = append(saved, o)
		}
	}
	return saved, nil
}

// Recent returns a user's newest offers, up to limit.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]domain.Offer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_title, company_name, COALESCE(location, ''),
		        COALESCE(description, ''), source_url, source_platform,
		        COALESCE(job_type, ''), COALESCE(work_mode, ''), tags,
		        COALESCE(published_at, 'epoch'::timestamptz), scraped_at
		 FROM offers
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(&o.ID, &o.JobTitle, &o.CompanyName, &o.Location,
			&o.Description, &o.SourceURL, &o.SourcePlatform, &o.JobType,
			&o.WorkMode, &o.Tags, &o.PublishedAt, &o.ScrapedAt); err != nil {
			return nil, fmt.Errorf("recent offers scan: %w", err)
		}
		if o.PublishedAt.Unix() == 0 {
			o.PublishedAt = time.Time{}
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// ByIDs returns the offers matching the given ids, in no particular order.
func (s *Store) ByIDs(ctx context.Context, ids []string) ([]domain.Offer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_title, company_name, COALESCE(location, ''),
		        COALESCE(description, ''), source_url, source_platform,
		        COALESCE(job_type, ''), COALESCE(work_mode, ''), tags,
		        COALESCE(published_at, 'epoch'::timestamptz), scraped_at
		 FROM offers WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("offers by ids: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(&o.ID, &o.JobTitle, &o.CompanyName, &o.Location,
			&o.Description, &o.SourceURL, &o.SourcePlatform, &o.JobType,
			&o.WorkMode, &o.Tags, &o.PublishedAt, &o.ScrapedAt); err != nil {
			return nil, fmt.Errorf("offers by ids scan: %w", err)
		}
		if o.PublishedAt.Unix() == 0 {
			o.PublishedAt = time.Time{}
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// seenRecently consults the Redis guard, claiming the URL as a side effect
// when it was free. Guard errors degrade to "not seen" so Redis downtime
// never blocks persistence.
func (s *Store) seenRecently(ctx context.Context, url string) bool {
	if s.rdb == nil {
		return false
	}
	ok, err := s.rdb.SetNX(ctx, seenKey(url), 1, seenTTL).Result()
	if err != nil {
		s.log.Debug("seen-url guard unavailable", "error", err)
		return false
	}
	return !ok
}

func seenKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "offers:seen:" + hex.EncodeToString(sum[:])
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
