package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/equivalency"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable_PadsColumns(t *testing.T) {
	out := RenderTable([]string{"A", "B"}, [][]string{{"long value", "x"}, {"s", "y"}})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	first, second := lines[len(lines)-2], lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(first, "long value"))
	assert.Equal(t, strings.Index(first, "x"), strings.Index(second, "y"), "columns line up")
}

func TestRenderMatches(t *testing.T) {
	pid := "p-margarine"
	ratio := model.MustParseRatio("1:1")
	results := []model.MatchResult{
		{IngredientName: "butter", Status: model.MatchEquivalent, MatchedProductID: &pid, SubstitutionRatio: &ratio, Confidence: 0.8},
		{IngredientName: "flour", Status: model.MatchMissing},
	}

	out := RenderMatches(results, map[string]string{pid: "Margarine"})

	assert.Contains(t, out, "butter")
	assert.Contains(t, out, "Margarine")
	assert.Contains(t, out, "substitute")
	assert.Contains(t, out, "80%")
	assert.Contains(t, out, "missing")
	assert.Contains(t, RenderMatches(nil, nil), "No ingredients")
}

func TestRenderRecommendations(t *testing.T) {
	recs := []model.Recommendation{
		{ProductID: "p-milk", ProductName: "Milk", Unit: "l", Priority: 5, Confidence: 80, PredictedQuantity: 4, Reason: "Runs out in 2 days", Source: model.SourceConsumptionPattern},
		{ProductID: "p-yogurt", Priority: 3, Confidence: 90, PredictedQuantity: 1, Reason: "Expires tomorrow", Source: model.SourceExpirationReplacement},
	}

	out := RenderRecommendations(recs)

	assert.Contains(t, out, CartIcon+" Milk")
	assert.Contains(t, out, ClockIcon+" p-yogurt")
	assert.Contains(t, out, "4 l")
	assert.Contains(t, out, "●●●○○")
	assert.Contains(t, RenderRecommendations(nil), "Nothing to buy")
}

func TestRenderCandidates(t *testing.T) {
	candidates := []equivalency.Candidate{
		{EquivalentName: "margarine", Ratio: model.MustParseRatio("1:1"), Confidence: 0.72, Scope: model.ScopeSystem, RatioMalformed: true},
	}

	out := RenderCandidates("butter", candidates)

	assert.Contains(t, out, "margarine")
	assert.Contains(t, out, "malformed")
	assert.Contains(t, out, "0.72")
	assert.Contains(t, RenderCandidates("saffron", nil), `"saffron"`)
}

func TestRenderEdges(t *testing.T) {
	edge := model.NewEquivalencyEdge("butter", "ghee", 0.7, "1:1", true, model.ScopeHousehold, "h1")
	edge.ID = 7
	edge.Active = false

	out := RenderEdges([]model.EquivalencyEdge{edge})

	assert.Contains(t, out, "butter ↔ ghee")
	assert.Contains(t, out, "household:h1")
	assert.Contains(t, out, "inactive")
}

func TestExpiryLabel(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	at := func(days int) *time.Time {
		d := now.AddDate(0, 0, days)
		return &d
	}

	tests := []struct {
		expires  *time.Time
		name     string
		contains string
	}{
		{name: "none", expires: nil, contains: "-"},
		{name: "expired", expires: at(-1), contains: "expired"},
		{name: "today", expires: at(0), contains: "today"},
		{name: "soon", expires: at(2), contains: "(2d)"},
		{name: "later", expires: at(10), contains: "(10d)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, expiryLabel(tt.expires, now), tt.contains)
		})
	}
}

func TestRenderInventory(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	items := []model.InventoryItem{
		{ProductID: "p-milk", Product: &model.Product{ID: "p-milk", Name: "Milk"}, Quantity: 2, Unit: "l", PurchaseDate: now},
	}

	out := RenderInventory(items, now)

	assert.Contains(t, out, "Milk")
	assert.Contains(t, out, "2 l")
	assert.Contains(t, out, "2025-03-10")
	assert.Contains(t, RenderInventory(nil, now), "empty")
}
