// Package cache persists search results in PostgreSQL under a derived key
// with a TTL, a hit counter, and explicit invalidation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/Kenfack-franck/jobHunterAi/engine/domain"
)

// Key derives the cache key for one (user, query, sources) triple. Params
// are lowercased and trimmed and sources sorted first, so equivalent
// searches land on the same entry regardless of input casing or source
// order.
func Key(userID string, q domain.Query, sources []string) string {
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	parts := []string{
		userID,
		canon(q.Keywords),
		canon(q.Location),
		canon(q.JobType),
		canon(q.WorkMode),
		canon(q.Company),
		strings.Join(sorted, "|"),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func canon(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
