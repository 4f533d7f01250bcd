package model

import (
	"fmt"
	"sort"
)

// RecommendationSource names the signal that produced a recommendation.
type RecommendationSource string

// Recommendation sources.
const (
	SourceConsumptionPattern    RecommendationSource = "consumption_pattern"
	SourceExpirationReplacement RecommendationSource = "expiration_replacement"
)

// Priority bounds.
const (
	MinPriority = 1
	MaxPriority = 5
)

// Recommendation is a suggestion to restock a product.
type Recommendation struct {
	ProductID         string               `json:"product_id"`
	ProductName       string               `json:"product_name,omitempty"`
	Unit              string               `json:"unit"`
	Reason            string               `json:"reason"`
	Source            RecommendationSource `json:"source"`
	PredictedQuantity float64              `json:"predicted_quantity"`
	Confidence        float64              `json:"confidence"`
	Priority          int                  `json:"priority"`
}

// Validate ensures the Recommendation has valid data.
func (r *Recommendation) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("product id is required")
	}

	if r.Priority < MinPriority || r.Priority > MaxPriority {
		return fmt.Errorf("priority must be between %d and %d, got %d", MinPriority, MaxPriority, r.Priority)
	}

	if r.Confidence < 0 || r.Confidence > 100 {
		return fmt.Errorf("confidence must be between 0 and 100, got %.2f", r.Confidence)
	}

	if r.Source != SourceConsumptionPattern && r.Source != SourceExpirationReplacement {
		return fmt.Errorf("unknown source %q", r.Source)
	}

	return nil
}

// Recommendations is a slice of Recommendation that supports ranking.
type Recommendations []Recommendation

// Len implements sort.Interface.
func (r Recommendations) Len() int {
	return len(r)
}

// Less implements sort.Interface - higher priority first, then higher confidence.
func (r Recommendations) Less(i, j int) bool {
	if r[i].Priority != r[j].Priority {
		return r[i].Priority > r[j].Priority
	}
	return r[i].Confidence > r[j].Confidence
}

// Swap implements sort.Interface.
func (r Recommendations) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

// Sort orders the recommendations, keeping input order among ties.
func (r Recommendations) Sort() {
	sort.Stable(r)
}

// TopN returns at most n recommendations after sorting.
func (r Recommendations) TopN(n int) Recommendations {
	if n <= 0 {
		return Recommendations{}
	}

	r.Sort()

	if n > len(r) {
		n = len(r)
	}

	result := make(Recommendations, n)
	copy(result, r[:n])
	return result
}

// Validate ensures every recommendation is valid and no product appears twice.
func (r Recommendations) Validate() error {
	seen := make(map[string]bool)

	for i, rec := range r {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("invalid recommendation at index %d: %w", i, err)
		}

		if seen[rec.ProductID] {
			return fmt.Errorf("duplicate product %q in recommendations", rec.ProductID)
		}
		seen[rec.ProductID] = true
	}

	return nil
}
