// Package availability classifies recipe ingredients against a household's inventory.
package availability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/pantry-intelligence/internal/equivalency"
	"github.com/Veraticus/pantry-intelligence/internal/metrics"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/normalize"
)

// Match confidences for the non-equivalent statuses.
const (
	ExactConfidence   = 1.0
	PartialConfidence = 0.5
	MissingConfidence = 0.0
)

// MinPartialLength is the shortest contained string a partial match accepts.
const MinPartialLength = 3

// Resolver supplies equivalent names for an ingredient.
type Resolver interface {
	Resolve(ctx context.Context, name model.FoodName, householdID string) ([]equivalency.Candidate, error)
}

// Matcher runs the exact, equivalent, partial, missing cascade.
type Matcher struct {
	resolver Resolver
	metrics  *metrics.Recorder
}

// NewMatcher creates a matcher. A nil resolver disables the equivalent step.
func NewMatcher(resolver Resolver, recorder *metrics.Recorder) *Matcher {
	return &Matcher{resolver: resolver, metrics: recorder}
}

type indexedProduct struct {
	id   string
	name model.FoodName
}

// inventoryIndex holds the usable products of a snapshot in input order.
type inventoryIndex struct {
	byName   map[model.FoodName]string
	products []indexedProduct
}

func newInventoryIndex(products []model.Product) inventoryIndex {
	idx := inventoryIndex{byName: make(map[model.FoodName]string, len(products))}

	for _, p := range products {
		name := normalize.Normalize(p.Name)
		if p.ID == "" || name == "" {
			slog.Debug("Skipping unusable product in inventory snapshot", "product_id", p.ID, "name", p.Name)
			continue
		}
		if _, exists := idx.byName[name]; !exists {
			idx.byName[name] = p.ID
		}
		idx.products = append(idx.products, indexedProduct{id: p.ID, name: name})
	}

	return idx
}

// Match classifies each ingredient. Results are in input order. A resolver failure
// is returned as is, so callers can detect common.ErrStoreUnavailable and fall back
// to MatchWithoutEquivalents.
func (m *Matcher) Match(ctx context.Context, householdID string, ingredients []model.FoodName, products []model.Product) ([]model.MatchResult, error) {
	idx := newInventoryIndex(products)
	results := make([]model.MatchResult, 0, len(ingredients))

	for _, ingredient := range ingredients {
		result, err := m.matchOne(ctx, householdID, ingredient, idx, m.resolver != nil)
		if err != nil {
			return nil, fmt.Errorf("failed to match ingredient %q: %w", ingredient, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// MatchWithoutEquivalents runs the cascade without consulting equivalency rules.
func (m *Matcher) MatchWithoutEquivalents(ingredients []model.FoodName, products []model.Product) []model.MatchResult {
	idx := newInventoryIndex(products)
	results := make([]model.MatchResult, 0, len(ingredients))

	for _, ingredient := range ingredients {
		// cannot fail without a resolver
		result, _ := m.matchOne(context.Background(), "", ingredient, idx, false)
		results = append(results, result)
	}

	return results
}

func (m *Matcher) matchOne(ctx context.Context, householdID string, ingredient model.FoodName, idx inventoryIndex, useEquivalents bool) (model.MatchResult, error) {
	result := model.MatchResult{
		IngredientName: ingredient,
		Status:         model.MatchMissing,
		Confidence:     MissingConfidence,
	}
	defer func() { m.metrics.Match(string(result.Status)) }()

	if ingredient == "" {
		return result, nil
	}

	if id, ok := idx.byName[ingredient]; ok {
		result.Status = model.MatchExact
		result.Confidence = ExactConfidence
		result.MatchedProductID = &id
		return result, nil
	}

	if useEquivalents {
		candidates, err := m.resolver.Resolve(ctx, ingredient, householdID)
		if err != nil {
			return result, err
		}
		for _, c := range candidates {
			id, ok := idx.byName[c.EquivalentName]
			if !ok {
				continue
			}
			ratio := c.Ratio
			result.Status = model.MatchEquivalent
			result.Confidence = c.Confidence
			result.MatchedProductID = &id
			result.SubstitutionRatio = &ratio
			return result, nil
		}
	}

	if id, ok := idx.partial(ingredient); ok {
		result.Status = model.MatchPartial
		result.Confidence = PartialConfidence
		result.MatchedProductID = &id
		return result, nil
	}

	return result, nil
}

// partial finds the first product whose name contains the ingredient or is contained
// in it. Plain substring containment, so "salt" also hits "unsalted butter".
func (idx inventoryIndex) partial(ingredient model.FoodName) (string, bool) {
	in := string(ingredient)
	for _, p := range idx.products {
		name := string(p.name)
		if len(in) >= MinPartialLength && strings.Contains(name, in) {
			return p.id, true
		}
		if len(name) >= MinPartialLength && strings.Contains(in, name) {
			return p.id, true
		}
	}
	return "", false
}
