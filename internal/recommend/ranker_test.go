package recommend

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockout(id string, priority int, confidence float64) model.Recommendation {
	return model.Recommendation{
		ProductID:  id,
		Priority:   priority,
		Confidence: confidence,
		Source:     model.SourceConsumptionPattern,
	}
}

func expiration(id string) model.Recommendation {
	return model.Recommendation{
		ProductID:         id,
		Priority:          3,
		Confidence:        90,
		PredictedQuantity: 1,
		Source:            model.SourceExpirationReplacement,
	}
}

func ids(recs []model.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ProductID)
	}
	return out
}

func TestRanker_Rank(t *testing.T) {
	tests := []struct {
		name        string
		stockouts   []model.Recommendation
		expirations []model.Recommendation
		want        []string
		wantSources []model.RecommendationSource
		limit       int
	}{
		{
			name:        "stockout suppresses expiration for same product",
			stockouts:   []model.Recommendation{stockout("milk", 3, 60)},
			expirations: []model.Recommendation{expiration("milk")},
			want:        []string{"milk"},
			wantSources: []model.RecommendationSource{model.SourceConsumptionPattern},
		},
		{
			name:        "sorted by priority then confidence",
			stockouts:   []model.Recommendation{stockout("a", 3, 40), stockout("b", 5, 20), stockout("c", 4, 100)},
			expirations: []model.Recommendation{expiration("d")},
			want:        []string{"b", "c", "d", "a"},
		},
		{
			name:        "ties keep stockouts before expirations",
			stockouts:   []model.Recommendation{stockout("a", 3, 90)},
			expirations: []model.Recommendation{expiration("b"), expiration("c")},
			want:        []string{"a", "b", "c"},
		},
		{
			name:      "duplicate stockouts keep the first",
			stockouts: []model.Recommendation{stockout("a", 3, 40), stockout("a", 5, 100)},
			want:      []string{"a"},
		},
		{
			name:        "limit applied after sorting",
			stockouts:   []model.Recommendation{stockout("low", 3, 10), stockout("high", 5, 10)},
			expirations: []model.Recommendation{expiration("exp")},
			limit:       2,
			want:        []string{"high", "exp"},
		},
		{
			name: "empty inputs",
			want: []string{},
		},
		{
			name:        "blank product ids dropped",
			stockouts:   []model.Recommendation{stockout("", 5, 100)},
			expirations: []model.Recommendation{expiration("")},
			want:        []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRanker(nil).Rank(tt.stockouts, tt.expirations, tt.limit)

			assert.Equal(t, tt.want, ids(got))
			for i, src := range tt.wantSources {
				assert.Equal(t, src, got[i].Source)
			}
		})
	}
}

func TestRanker_CapAndUniqueness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		var stockouts, expirations []model.Recommendation
		nStockouts, nExpirations := rng.Intn(40), rng.Intn(40)
		for i := 0; i < nStockouts; i++ {
			stockouts = append(stockouts, stockout(fmt.Sprintf("p%d", rng.Intn(30)), 3+rng.Intn(3), float64(rng.Intn(101))))
		}
		for i := 0; i < nExpirations; i++ {
			expirations = append(expirations, expiration(fmt.Sprintf("p%d", rng.Intn(30))))
		}

		got := NewRanker(nil).Rank(stockouts, expirations, 0)

		require.LessOrEqual(t, len(got), DefaultCap)
		require.NoError(t, model.Recommendations(got).Validate())
	}
}

func TestRanker_Deterministic(t *testing.T) {
	stockouts := []model.Recommendation{stockout("a", 4, 50), stockout("b", 4, 50), stockout("c", 5, 10)}
	expirations := []model.Recommendation{expiration("d"), expiration("a")}

	r := NewRanker(nil)
	first := r.Rank(stockouts, expirations, 20)
	second := r.Rank(stockouts, expirations, 20)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(first))
}
