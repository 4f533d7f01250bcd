package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendations_Sort(t *testing.T) {
	recs := Recommendations{
		{ProductID: "a", Priority: 3, Confidence: 90},
		{ProductID: "b", Priority: 5, Confidence: 20},
		{ProductID: "c", Priority: 3, Confidence: 90},
		{ProductID: "d", Priority: 3, Confidence: 100},
	}

	recs.Sort()

	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ProductID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestRecommendations_TopN(t *testing.T) {
	recs := Recommendations{
		{ProductID: "a", Priority: 3},
		{ProductID: "b", Priority: 4},
		{ProductID: "c", Priority: 5},
	}

	assert.Empty(t, recs.TopN(0))
	assert.Len(t, recs.TopN(10), 3)

	top := recs.TopN(2)
	require.Len(t, top, 2)
	assert.Equal(t, "c", top[0].ProductID)
	assert.Equal(t, "b", top[1].ProductID)
}

func TestRecommendations_Validate(t *testing.T) {
	valid := Recommendation{ProductID: "milk", Priority: 3, Confidence: 60, Source: SourceConsumptionPattern}

	tests := []struct {
		name    string
		errMsg  string
		recs    Recommendations
		wantErr bool
	}{
		{name: "valid", recs: Recommendations{valid}},
		{
			name:    "duplicate product",
			recs:    Recommendations{valid, valid},
			wantErr: true,
			errMsg:  "duplicate product",
		},
		{
			name:    "priority out of range",
			recs:    Recommendations{{ProductID: "x", Priority: 6, Source: SourceConsumptionPattern}},
			wantErr: true,
			errMsg:  "priority must be between",
		},
		{
			name:    "unknown source",
			recs:    Recommendations{{ProductID: "x", Priority: 3, Source: "guess"}},
			wantErr: true,
			errMsg:  "unknown source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.recs.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInventoryItem_Valid(t *testing.T) {
	product := &Product{ID: "p1", Name: "Milk"}

	tests := []struct {
		name string
		item InventoryItem
		want bool
	}{
		{name: "valid", item: InventoryItem{Product: product, Quantity: 2}, want: true},
		{name: "zero quantity", item: InventoryItem{Product: product}, want: true},
		{name: "nil product", item: InventoryItem{ProductID: "p1", Quantity: 1}, want: false},
		{name: "negative quantity", item: InventoryItem{Product: product, Quantity: -1}, want: false},
		{name: "empty product id", item: InventoryItem{Product: &Product{Name: "x"}, Quantity: 1}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Valid())
		})
	}
}
