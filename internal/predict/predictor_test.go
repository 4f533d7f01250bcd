package predict

import (
	"testing"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func item(productID string, qty float64) model.InventoryItem {
	return model.InventoryItem{
		ID:        "item-" + productID,
		ProductID: productID,
		Product:   &model.Product{ID: productID, Name: productID},
		Quantity:  qty,
		Unit:      "unit",
	}
}

func expiringItem(productID string, inDays int) model.InventoryItem {
	it := item(productID, 1)
	exp := testNow.AddDate(0, 0, inDays)
	it.ExpirationDate = &exp
	return it
}

func TestPredictor_PredictStockouts(t *testing.T) {
	tests := []struct {
		name      string
		rates     map[string]model.Velocity
		inventory []model.InventoryItem
		want      []model.Recommendation
	}{
		{
			name:      "one day runway is top priority",
			rates:     map[string]model.Velocity{"bread": {Total: 7, EventsCount: 7, WeeklyRate: 7}},
			inventory: []model.InventoryItem{item("bread", 1)},
			want: []model.Recommendation{{
				ProductID: "bread", ProductName: "bread", Unit: "unit",
				Priority: 5, Confidence: 100, PredictedQuantity: 14,
				Source: model.SourceConsumptionPattern,
			}},
		},
		{
			name:      "exactly three days is still top priority",
			rates:     map[string]model.Velocity{"yogurt": {EventsCount: 5, WeeklyRate: 7}},
			inventory: []model.InventoryItem{item("yogurt", 3)},
			want: []model.Recommendation{{
				ProductID: "yogurt", ProductName: "yogurt", Unit: "unit",
				Priority: 5, Confidence: 100, PredictedQuantity: 14,
				Source: model.SourceConsumptionPattern,
			}},
		},
		{
			name:      "exactly seven days is priority four",
			rates:     map[string]model.Velocity{"cheese": {EventsCount: 5, WeeklyRate: 7}},
			inventory: []model.InventoryItem{item("cheese", 7)},
			want: []model.Recommendation{{
				ProductID: "cheese", ProductName: "cheese", Unit: "unit",
				Priority: 4, Confidence: 100, PredictedQuantity: 14,
				Source: model.SourceConsumptionPattern,
			}},
		},
		{
			name:      "exactly fourteen days is included",
			rates:     map[string]model.Velocity{"oats": {EventsCount: 5, WeeklyRate: 7}},
			inventory: []model.InventoryItem{item("oats", 14)},
			want: []model.Recommendation{{
				ProductID: "oats", ProductName: "oats", Unit: "unit",
				Priority: 3, Confidence: 100, PredictedQuantity: 14,
				Source: model.SourceConsumptionPattern,
			}},
		},
		{
			name:      "just past fourteen days excluded",
			rates:     map[string]model.Velocity{"oats": {EventsCount: 5, WeeklyRate: 7}},
			inventory: []model.InventoryItem{item("oats", 14.01)},
			want:      []model.Recommendation{},
		},
		{
			name:      "twenty day runway excluded",
			rates:     map[string]model.Velocity{"rice": {Total: 7, EventsCount: 2, WeeklyRate: 7}},
			inventory: []model.InventoryItem{item("rice", 20)},
			want:      []model.Recommendation{},
		},
		{
			name:      "milk scenario",
			rates:     map[string]model.Velocity{"milk": {Total: 3, EventsCount: 3, WeeklyRate: 1.5}},
			inventory: []model.InventoryItem{item("milk", 2)},
			want: []model.Recommendation{{
				ProductID: "milk", ProductName: "milk", Unit: "unit",
				Priority: 3, Confidence: 60, PredictedQuantity: 3,
				Source: model.SourceConsumptionPattern,
			}},
		},
		{
			name:      "seven day runway is priority four",
			rates:     map[string]model.Velocity{"eggs": {EventsCount: 1, WeeklyRate: 6}},
			inventory: []model.InventoryItem{item("eggs", 6)},
			want: []model.Recommendation{{
				ProductID: "eggs", ProductName: "eggs", Unit: "unit",
				Priority: 4, Confidence: 20, PredictedQuantity: 12,
				Source: model.SourceConsumptionPattern,
			}},
		},
		{
			name:      "rate without stock has zero runway",
			rates:     map[string]model.Velocity{"coffee": {EventsCount: 10, WeeklyRate: 0.4}},
			inventory: nil,
			want: []model.Recommendation{{
				ProductID: "coffee", Priority: 5, Confidence: 100, PredictedQuantity: 1,
				Source: model.SourceConsumptionPattern,
			}},
		},
		{
			name:  "quantities summed across items and consumed items ignored",
			rates: map[string]model.Velocity{"apples": {EventsCount: 5, WeeklyRate: 7}},
			inventory: func() []model.InventoryItem {
				consumed := item("apples", 50)
				consumed.IsConsumed = true
				return []model.InventoryItem{item("apples", 2), item("apples", 3), consumed}
			}(),
			want: []model.Recommendation{{
				ProductID: "apples", ProductName: "apples", Unit: "unit",
				Priority: 4, Confidence: 100, PredictedQuantity: 14,
				Source: model.SourceConsumptionPattern,
			}},
		},
		{
			name:  "zero rate ignored",
			rates: map[string]model.Velocity{"salt": {EventsCount: 1, WeeklyRate: 0}},
			want:  []model.Recommendation{},
		},
		{
			name: "ordered by runway then product id",
			rates: map[string]model.Velocity{
				"b": {EventsCount: 5, WeeklyRate: 7},
				"a": {EventsCount: 5, WeeklyRate: 7},
				"c": {EventsCount: 5, WeeklyRate: 7},
			},
			inventory: []model.InventoryItem{item("a", 5), item("b", 2), item("c", 2)},
			want: []model.Recommendation{
				{ProductID: "b", ProductName: "b", Unit: "unit", Priority: 5, Confidence: 100, PredictedQuantity: 14, Source: model.SourceConsumptionPattern},
				{ProductID: "c", ProductName: "c", Unit: "unit", Priority: 5, Confidence: 100, PredictedQuantity: 14, Source: model.SourceConsumptionPattern},
				{ProductID: "a", ProductName: "a", Unit: "unit", Priority: 4, Confidence: 100, PredictedQuantity: 14, Source: model.SourceConsumptionPattern},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPredictorWithClock(clock)

			got := p.PredictStockouts(tt.rates, tt.inventory)
			require.Len(t, got, len(tt.want))

			for i := range got {
				assert.NotEmpty(t, got[i].Reason)
				got[i].Reason = ""
				assert.Equal(t, tt.want[i], got[i])
			}
		})
	}
}

func TestPredictor_PredictExpirations(t *testing.T) {
	tests := []struct {
		name        string
		inventory   []model.InventoryItem
		wantIDs     []string
		horizonDays int
	}{
		{
			name:        "five days out within seven day horizon",
			inventory:   []model.InventoryItem{expiringItem("yogurt", 5)},
			horizonDays: 7,
			wantIDs:     []string{"yogurt"},
		},
		{
			name:        "today and past excluded",
			inventory:   []model.InventoryItem{expiringItem("cream", 0), expiringItem("cheese", -2)},
			horizonDays: 7,
			wantIDs:     []string{},
		},
		{
			name:        "horizon boundary inclusive",
			inventory:   []model.InventoryItem{expiringItem("ham", 7), expiringItem("fish", 8)},
			horizonDays: 7,
			wantIDs:     []string{"ham"},
		},
		{
			name: "consumed and undated items ignored",
			inventory: func() []model.InventoryItem {
				consumed := expiringItem("juice", 2)
				consumed.IsConsumed = true
				return []model.InventoryItem{consumed, item("flour", 1)}
			}(),
			horizonDays: 7,
			wantIDs:     []string{},
		},
		{
			name: "malformed items skipped",
			inventory: func() []model.InventoryItem {
				orphan := expiringItem("ghost", 2)
				orphan.Product = nil
				negative := expiringItem("neg", 2)
				negative.Quantity = -1
				return []model.InventoryItem{orphan, negative, expiringItem("tofu", 3)}
			}(),
			horizonDays: 7,
			wantIDs:     []string{"tofu"},
		},
		{
			name: "one candidate per product ordered by days",
			inventory: []model.InventoryItem{
				expiringItem("milk", 6),
				expiringItem("bread", 2),
				expiringItem("milk", 3),
				expiringItem("apples", 3),
			},
			horizonDays: 7,
			wantIDs:     []string{"bread", "apples", "milk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPredictorWithClock(clock)

			got := p.PredictExpirations(tt.inventory, tt.horizonDays)

			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ProductID)
				assert.Equal(t, 3, r.Priority)
				assert.InDelta(t, 90, r.Confidence, 0)
				assert.InDelta(t, 1, r.PredictedQuantity, 0)
				assert.Equal(t, model.SourceExpirationReplacement, r.Source)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestPredictor_ExpirationUsesCalendarDays(t *testing.T) {
	now := time.Date(2024, 6, 15, 23, 50, 0, 0, time.UTC)
	p := NewPredictorWithClock(func() time.Time { return now })

	exp := time.Date(2024, 6, 16, 0, 10, 0, 0, time.UTC)
	it := item("lettuce", 1)
	it.ExpirationDate = &exp

	got := p.PredictExpirations([]model.InventoryItem{it}, 7)
	require.Len(t, got, 1)
	assert.Equal(t, "Expires tomorrow", got[0].Reason)
}
