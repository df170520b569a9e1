package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

// ErrDuplicateSource is returned when a user re-adds a URL they already
// registered.
var ErrDuplicateSource = errors.New("source url already added")

// ErrSourceUnreachable is returned when the probe cannot reach the URL at
// creation time.
var ErrSourceUnreachable = errors.New("source url not accessible")

// CustomSource is a user-submitted page to scrape. The stored analysis is
// the one taken at creation time; it is not refreshed on reads.
type CustomSource struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	SourceName        string     `json:"source_name"`
	SourceURL         string     `json:"source_url"`
	SourceType        string     `json:"source_type"`
	IsActive          bool       `json:"is_active"`
	ScrapingFrequency string     `json:"scraping_frequency"`
	LastScrapedAt     *time.Time `json:"last_scraped_at,omitempty"`
	TotalOffersFound  int        `json:"total_offers_found"`
	CreatedAt         time.Time  `json:"created_at"`
	Analysis          *Analysis  `json:"analysis,omitempty"`
}

// SourceService manages custom sources, probing each URL once at creation.
type SourceService struct {
	pool     *pgxpool.Pool
	analyzer *Analyzer
}

// NewSourceService returns the service.
func NewSourceService(pool *pgxpool.Pool, analyzer *Analyzer) *SourceService {
	return &SourceService{pool: pool, analyzer: analyzer}
}

// Add probes the URL and registers it. The source starts active only when
// the probe judged it scrapable; an unreachable URL is rejected outright.
func (s *SourceService) Add(ctx context.Context, userID, name, rawURL, frequency string) (*CustomSource, error) {
	if err := domain.ValidateSourceURL(rawURL); err != nil {
		return nil, err
	}
	if frequency == "" {
		frequency = "every_4_hours"
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM custom_sources WHERE user_id = $1 AND source_url = $2)`,
		userID, rawURL,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("custom source lookup: %w", err)
	}
	if exists {
		return nil, ErrDuplicateSource
	}

	analysis := s.analyzer.Analyze(ctx, rawURL)
	if !analysis.IsAccessible {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnreachable, analysis.Recommendation)
	}

	src := &CustomSource{
		ID:                uuid.NewString(),
		UserID:            userID,
		SourceName:        name,
		SourceURL:         rawURL,
		SourceType:        analysis.ContentType,
		IsActive:          analysis.IsScrapable,
		ScrapingFrequency: frequency,
		CreatedAt:         time.Now().UTC(),
		Analysis:          &analysis,
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO custom_sources
		   (id, user_id, source_name, source_url, source_type, is_active,
		    scraping_frequency, total_offers_found, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)`,
		src.ID, src.UserID, src.SourceName, src.SourceURL, src.SourceType,
		src.IsActive, src.ScrapingFrequency, src.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("custom source insert: %w", err)
	}
	return src, nil
}

// List returns a page of the user's sources, newest first.
func (s *SourceService) List(ctx context.Context, userID string, page, perPage int, activeOnly bool) ([]CustomSource, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	where := `WHERE user_id = $1`
	if activeOnly {
		where += ` AND is_active`
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM custom_sources `+where, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("custom source count: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, source_name, source_url, source_type, is_active,
		        scraping_frequency, last_scraped_at, total_offers_found, created_at
		 FROM custom_sources `+where+`
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		userID, (page-1)*perPage, perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("custom source list: %w", err)
	}
	defer rows.Close()

	var sources []CustomSource
	for rows.Next() {
		var c CustomSource
		if err := rows.Scan(&c.ID, &c.UserID, &c.SourceName, &c.SourceURL,
			&c.SourceType, &c.IsActive, &c.ScrapingFrequency, &c.LastScrapedAt,
			&c.TotalOffersFound, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("custom source scan: %w", err)
		}
		sources = append(sources, c)
	}
	return sources, total, rows.Err()
}

// ActiveForScrape returns every active custom source across users whose
// last scrape is older than its frequency allows. Used by the worker.
func (s *SourceService) ActiveForScrape(ctx context.Context, olderThan time.Duration) ([]CustomSource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, source_name, source_url, source_type, is_active,
		        scraping_frequency, last_scraped_at, total_offers_found, created_at
		 FROM custom_sources
		 WHERE is_active AND (last_scraped_at IS NULL OR last_scraped_at < $1)`,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return nil, fmt.Errorf("custom source due query: %w", err)
	}
	defer rows.Close()

	var sources []CustomSource
	for rows.Next() {
		var c CustomSource
		if err := rows.Scan(&c.ID, &c.UserID, &c.SourceName, &c.SourceURL,
			&c.SourceType, &c.IsActive, &c.ScrapingFrequency, &c.LastScrapedAt,
			&c.TotalOffersFound, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("custom source scan: %w", err)
		}
		sources = append(sources, c)
	}
	return sources, rows.Err()
}

// MarkScraped records a completed scrape and accumulates the offers found.
func (s *SourceService) MarkScraped(ctx context.Context, sourceID string, offersFound int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE custom_sources
		 SET last_scraped_at = now(), total_offers_found = total_offers_found + $2
		 WHERE id = $1`,
		sourceID, offersFound,
	)
	if err != nil {
		return fmt.Errorf("custom source mark scraped: %w", err)
	}
	return nil
}

// Delete removes a user's source. Returns pgx.ErrNoRows semantics as a
// plain boolean: false when nothing matched.
func (s *SourceService) Delete(ctx context.Context, userID, sourceID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM custom_sources WHERE id = $1 AND user_id = $2`,
		sourceID, userID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("custom source delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
