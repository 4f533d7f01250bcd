// Package recommend merges prediction signals into a bounded shopping list.
package recommend

import (
	"log/slog"

	"github.com/Veraticus/pantry-intelligence/internal/metrics"
	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// DefaultCap bounds the ranked list when the caller does not choose a size.
const DefaultCap = 20

// Ranker merges stockout and expiration candidates.
type Ranker struct {
	metrics *metrics.Recorder
}

// NewRanker creates a ranker. recorder may be nil.
func NewRanker(recorder *metrics.Recorder) *Ranker {
	return &Ranker{metrics: recorder}
}

// Rank keeps the first stockout candidate per product, then adds expiration candidates
// for products not already present. The merged list is stably sorted by priority and
// confidence, both descending, and truncated to limit (DefaultCap when limit <= 0).
func (r *Ranker) Rank(stockouts, expirations []model.Recommendation, limit int) []model.Recommendation {
	if limit <= 0 {
		limit = DefaultCap
	}

	seen := make(map[string]bool, len(stockouts)+len(expirations))
	merged := make(model.Recommendations, 0, len(stockouts)+len(expirations))

	add := func(candidates []model.Recommendation) int {
		dropped := 0
		for _, c := range candidates {
			if c.ProductID == "" || seen[c.ProductID] {
				dropped++
				continue
			}
			seen[c.ProductID] = true
			merged = append(merged, c)
		}
		return dropped
	}

	droppedStockouts := add(stockouts)
	suppressed := add(expirations)

	ranked := merged.TopN(limit)

	for _, rec := range ranked {
		r.metrics.Recommendation(string(rec.Source))
	}

	slog.Debug("Ranked recommendations",
		"stockouts", len(stockouts),
		"expirations", len(expirations),
		"duplicate_stockouts", droppedStockouts,
		"suppressed_expirations", suppressed,
		"returned", len(ranked))

	return ranked
}
