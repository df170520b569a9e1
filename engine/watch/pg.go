package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore persists watch state in the watched_entities and user_watches
// tables.
type pgStore struct {
	pool *pgxpool.Pool
}

func (p *pgStore) entityBySlug(ctx context.Context, slug string) (*Entity, error) {
	var e Entity
	err := p.pool.QueryRow(ctx,
		`SELECT id, slug, canonical_name, watcher_count, last_scraped_at,
		        scraping_frequency_hours, total_offers_found, created_at
		 FROM watched_entities WHERE slug = $1`,
		slug,
	).Scan(&e.ID, &e.Slug, &e.CanonicalName, &e.WatcherCount, &e.LastScrapedAt,
		&e.ScrapingFrequencyHours, &e.TotalOffersFound, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entity by slug: %w", err)
	}
	return &e, nil
}

func (p *pgStore) createEntity(ctx context.Context, e Entity) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO watched_entities
		   (id, slug, canonical_name, watcher_count, scraping_frequency_hours,
		    total_offers_found, created_at)
		 VALUES ($1, $2, $3, 0, $4, 0, $5)
		 ON CONFLICT (slug) DO NOTHING`,
		e.ID, e.Slug, e.CanonicalName, e.ScrapingFrequencyHours, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	return nil
}

func (p *pgStore) findWatch(ctx context.Context, userID, entityID string) (*UserWatch, error) {
	var w UserWatch
	err := p.pool.QueryRow(ctx,
		`SELECT id, user_id, watched_entity_id, alert_threshold,
		        COALESCE(profile_id::text, ''), created_at
		 FROM user_watches WHERE user_id = $1 AND watched_entity_id = $2`,
		userID, entityID,
	).Scan(&w.ID, &w.UserID, &w.EntityID, &w.AlertThreshold, &w.ProfileID, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find watch: %w", err)
	}
	return &w, nil
}

func (p *pgStore) insertWatch(ctx context.Context, w UserWatch) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO user_watches (id, user_id, watched_entity_id, alert_threshold, profile_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.UserID, w.EntityID, w.AlertThreshold, nullableStr(w.ProfileID), w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert watch: %w", err)
	}
	return nil
}

func (p *pgStore) deleteWatch(ctx context.Context, userID, watchID string) (string, bool, error) {
	var entityID string
	err := p.pool.QueryRow(ctx,
		`DELETE FROM user_watches WHERE id = $1 AND user_id = $2
		 RETURNING watched_entity_id`,
		watchID, userID,
	).Scan(&entityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("delete watch: %w", err)
	}
	return entityID, true, nil
}

func (p *pgStore) addWatchers(ctx context.Context, entityID string, delta int) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx,
		`UPDATE watched_entities
		 SET watcher_count = GREATEST(watcher_count + $2, 0)
		 WHERE id = $1 RETURNING watcher_count`,
		entityID, delta,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("adjust watcher count: %w", err)
	}
	return count, nil
}

func (p *pgStore) deleteEntity(ctx context.Context, entityID string) error {
	// The count guard keeps a concurrent AddWatch from losing its entity.
	_, err := p.pool.Exec(ctx,
		`DELETE FROM watched_entities WHERE id = $1 AND watcher_count = 0`,
		entityID,
	)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

func (p *pgStore) countWatches(ctx context.Context, userID string) (int, error) {
	var total int
	if err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM user_watches WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return 0, fmt.Errorf("count watches: %w", err)
	}
	return total, nil
}

func (p *pgStore) listWatches(ctx context.Context, userID string, offset, limit int) ([]WatchView, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT w.id, w.user_id, w.watched_entity_id, w.alert_threshold,
		        COALESCE(w.profile_id::text, ''), w.created_at,
		        e.id, e.slug, e.canonical_name, e.watcher_count,
		        e.last_scraped_at, e.scraping_frequency_hours,
		        e.total_offers_found, e.created_at
		 FROM user_watches w
		 JOIN watched_entities e ON e.id = w.watched_entity_id
		 WHERE w.user_id = $1
		 ORDER BY w.created_at DESC
		 OFFSET $2 LIMIT $3`,
		userID, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list watches: %w", err)
	}
	defer rows.Close()

	var views []WatchView
	for rows.Next() {
		var v WatchView
		if err := rows.Scan(&v.Watch.ID, &v.Watch.UserID, &v.Watch.EntityID,
			&v.Watch.AlertThreshold, &v.Watch.ProfileID, &v.Watch.CreatedAt,
			&v.Entity.ID, &v.Entity.Slug, &v.Entity.CanonicalName,
			&v.Entity.WatcherCount, &v.Entity.LastScrapedAt,
			&v.Entity.ScrapingFrequencyHours, &v.Entity.TotalOffersFound,
			&v.Entity.CreatedAt); err != nil {
			return nil, fmt.Errorf("list watches scan: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (p *pgStore) dueEntities(ctx context.Context, now time.Time) ([]Entity, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, slug, canonical_name, watcher_count, last_scraped_at,
		        scraping_frequency_hours, total_offers_found, created_at
		 FROM watched_entities
		 WHERE watcher_count > 0
		   AND (last_scraped_at IS NULL
		        OR last_scraped_at < $1 - (scraping_frequency_hours * interval '1 hour'))`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("due entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.Slug, &e.CanonicalName, &e.WatcherCount,
			&e.LastScrapedAt, &e.ScrapingFrequencyHours, &e.TotalOffersFound,
			&e.CreatedAt); err != nil {
			return nil, fmt.Errorf("due entities scan: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (p *pgStore) anyWatcher(ctx context.Context, entityID string) (string, error) {
	var userID string
	err := p.pool.QueryRow(ctx,
		`SELECT user_id FROM user_watches WHERE watched_entity_id = $1 LIMIT 1`,
		entityID,
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("any watcher: %w", err)
	}
	return userID, nil
}

func (p *pgStore) markScraped(ctx context.Context, entityID string, offersFound int, now time.Time) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE watched_entities
		 SET last_scraped_at = $2, total_offers_found = total_offers_found + $3
		 WHERE id = $1`,
		entityID, now.UTC(), offersFound,
	)
	if err != nil {
		return fmt.Errorf("mark scraped: %w", err)
	}
	return nil
}

func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
