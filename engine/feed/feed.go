// Package feed scores a user's stored offers against their profile and
// returns the best matches.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
	"github.com/Kenfack-franck/jobHunterAi/engine/semantic"
	"github.com/Kenfack-franck/jobHunterAi/pkg/ai"
)

// ErrEmptyProfile is returned when there is nothing to embed.
var ErrEmptyProfile = errors.New("profile text is empty")

// DefaultMinScore drops matches below this cosine similarity.
const DefaultMinScore = 0.3

// ScoredOffer is one feed entry.
type ScoredOffer struct {
	Offer domain.Offer `json:"offer"`
	Score float32      `json:"score"`
}

// OfferLookup resolves vector hits back to full offer rows.
type OfferLookup interface {
	ByIDs(ctx context.Context, ids []string) ([]domain.Offer, error)
}

// VectorSearcher is the slice of the vector store the feed needs.
type VectorSearcher interface {
	SearchFiltered(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]semantic.OfferHit, error)
}

// Service builds personalized feeds.
type Service struct {
	embedder ai.Client
	vectors  VectorSearcher
	offers   OfferLookup
	minScore float32
	log      *slog.Logger
}

// New wires the feed service. minScore <= 0 selects the default.
func New(embedder ai.Client, vectors VectorSearcher, offers OfferLookup, minScore float32, log *slog.Logger) *Service {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{embedder: embedder, vectors: vectors, offers: offers, minScore: minScore, log: log}
}

// Feed embeds the profile text, finds the user's nearest offers, and
// returns them sorted by score descending.
func (s *Service) Feed(ctx context.Context, userID, profileText string, limit int) ([]ScoredOffer, error) {
	if strings.TrimSpace(profileText) == "" {
		return nil, ErrEmptyProfile
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	emb, err := s.embedder.Embed(ctx, profileText)
	if err != nil {
		return nil, err
	}

	hits, err := s.vectors.SearchFiltered(ctx, emb, limit, map[string]string{"user_id": userID})
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float32, len(hits))
	var ids []string
	for _, h := range hits {
		if h.Score < s.minScore {
			continue
		}
		scores[h.ID] = h.Score
		ids = append(ids, h.ID)
	}
	if len(ids) == 0 {
		return []ScoredOffer{}, nil
	}

	offers, err := s.offers.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	feed := make([]ScoredOffer, 0, len(offers))
	for _, o := range offers {
		feed = append(feed, ScoredOffer{Offer: o, Score: scores[o.ID]})
	}
	sort.Slice(feed, func(i, j int) bool { return feed[i].Score > feed[j].Score })
	return feed, nil
}
