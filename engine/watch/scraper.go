package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kenfack-franck/jobHunterAi/engine/adapter"
	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/engine/ingest"
)

// OfferSaver is the slice of the offer store the scraper needs.
type OfferSaver interface {
	SaveAll(ctx context.Context, userID string, offers []domain.Offer) ([]domain.Offer, error)
}

// ScrapeReport summarizes one periodic run across all due entities.
type ScrapeReport struct {
	EntitiesScraped int      `json:"entities_scraped"`
	OffersFound     int      `json:"offers_found"`
	OffersSaved     int      `json:"offers_saved"`
	Errors          []string `json:"errors,omitempty"`
}

// Scraper runs the periodic multi-strategy fetch for watched entities.
// The primary adapter is queried with an exact company filter; the
// secondary adapter is searched broadly by company name and its results
// kept only when the offer's company fuzzy-matches the watched one.
type Scraper struct {
	registry  *Registry
	primary   adapter.Adapter
	secondary adapter.Adapter
	offers    OfferSaver
	threshold float64
	perSource int
	log       *slog.Logger
}

// NewScraper wires the scrape pipeline. threshold <= 0 selects the default
// company match threshold.
func NewScraper(registry *Registry, primary, secondary adapter.Adapter, offers OfferSaver, threshold float64, log *slog.Logger) *Scraper {
	if threshold <= 0 {
		threshold = DefaultCompanyMatchThreshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scraper{
		registry:  registry,
		primary:   primary,
		secondary: secondary,
		offers:    offers,
		threshold: threshold,
		perSource: 50,
		log:       log,
	}
}

// ScrapeDue processes every entity whose scrape is overdue. One entity's
// failure is recorded and the run continues; bookkeeping on the entity is
// updated even when nothing new was found.
func (s *Scraper) ScrapeDue(ctx context.Context) ScrapeReport {
	var report ScrapeReport

	entities, err := s.registry.DueEntities(ctx, time.Now())
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	for _, e := range entities {
		found, saved, err := s.scrapeEntity(ctx, e)
		report.EntitiesScraped++
		report.OffersFound += found
		report.OffersSaved += saved
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", e.Slug, err))
		}
	}
	s.log.Info("watch scrape complete",
		"entities", report.EntitiesScraped,
		"found", report.OffersFound,
		"saved", report.OffersSaved,
		"errors", len(report.Errors))
	return report
}

func (s *Scraper) scrapeEntity(ctx context.Context, e Entity) (found, saved int, err error) {
	raws := s.fetchAll(ctx, e.CanonicalName)
	found = len(raws)

	var offers []domain.Offer
	for _, raw := range raws {
		if domain.ValidateRawOffer(raw) != nil {
			continue
		}
		offers = append(offers, ingest.Normalize(raw))
	}

	if len(offers) > 0 {
		owner, ownerErr := s.registry.AnyWatcher(ctx, e.ID)
		if ownerErr != nil {
			err = ownerErr
		} else {
			persisted, saveErr := s.offers.SaveAll(ctx, owner, offers)
			saved = len(persisted)
			if saveErr != nil {
				err = saveErr
			}
		}
	}

	if markErr := s.registry.MarkScraped(ctx, e.ID, saved, time.Now()); markErr != nil && err == nil {
		err = markErr
	}
	return found, saved, err
}

// fetchAll runs both strategies, tolerating either failing.
func (s *Scraper) fetchAll(ctx context.Context, company string) []domain.RawOffer {
	var raws []domain.RawOffer

	res := adapter.SafeFetch(ctx, s.primary, domain.Query{Company: company}, s.perSource, 0)
	if res.Err != nil {
		s.log.Warn("watch primary fetch failed", "company", company, "source", res.Source, "error", res.Err)
	}
	raws = append(raws, res.Offers...)

	res = adapter.SafeFetch(ctx, s.secondary, domain.Query{Keywords: company}, s.perSource, 0)
	if res.Err != nil {
		s.log.Warn("watch secondary fetch failed", "company", company, "source", res.Source, "error", res.Err)
	}
	for _, o := range res.Offers {
		if CompanyMatches(company, o.Company, s.threshold) {
			raws = append(raws, o)
		}
	}
	return raws
}
