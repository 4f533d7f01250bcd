package model

// MatchStatus classifies how an ingredient was found in inventory.
type MatchStatus string

// Match statuses, in cascade order.
const (
	MatchExact      MatchStatus = "exact"
	MatchEquivalent MatchStatus = "equivalent"
	MatchPartial    MatchStatus = "partial"
	MatchMissing    MatchStatus = "missing"
)

// MatchResult reports availability for one requested ingredient.
type MatchResult struct {
	MatchedProductID  *string     `json:"matched_product_id"`
	SubstitutionRatio *Ratio      `json:"substitution_ratio"`
	IngredientName    FoodName    `json:"ingredient_name"`
	Status            MatchStatus `json:"status"`
	Confidence        float64     `json:"confidence"`
}

// Found reports whether the ingredient matched anything.
func (r MatchResult) Found() bool {
	return r.Status != MatchMissing
}
