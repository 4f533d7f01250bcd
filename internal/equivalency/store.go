// Package equivalency resolves which food names may stand in for one another,
// honoring household overrides over system defaults.
package equivalency

import (
	"context"
	"sync"

	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// Store is the read side of the two-tier equivalency rule store.
// Both methods return every edge touching name, either as subject or as equivalent;
// the resolver decides which of them apply.
type Store interface {
	SystemEdges(ctx context.Context, name model.FoodName) ([]model.EquivalencyEdge, error)
	HouseholdEdges(ctx context.Context, householdID string, name model.FoodName) ([]model.EquivalencyEdge, error)
}

// MemoryStore is an in-process Store, used for tests and for YAML-seeded runs.
type MemoryStore struct {
	edges []model.EquivalencyEdge
	mu    sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding the given edges.
func NewMemoryStore(edges ...model.EquivalencyEdge) *MemoryStore {
	s := &MemoryStore{}
	s.Add(edges...)
	return s
}

// Add appends edges to the store.
func (s *MemoryStore) Add(edges ...model.EquivalencyEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edges...)
}

// SystemEdges returns system-scope edges touching name.
func (s *MemoryStore) SystemEdges(ctx context.Context, name model.FoodName) ([]model.EquivalencyEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.find(func(e model.EquivalencyEdge) bool {
		return e.Scope == model.ScopeSystem && touches(e, name)
	}), nil
}

// HouseholdEdges returns edges owned by householdID touching name.
func (s *MemoryStore) HouseholdEdges(ctx context.Context, householdID string, name model.FoodName) ([]model.EquivalencyEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.find(func(e model.EquivalencyEdge) bool {
		return e.Scope == model.ScopeHousehold && e.HouseholdID == householdID && touches(e, name)
	}), nil
}

func (s *MemoryStore) find(keep func(model.EquivalencyEdge) bool) []model.EquivalencyEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.EquivalencyEdge
	for _, e := range s.edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func touches(e model.EquivalencyEdge, name model.FoodName) bool {
	return e.Subject == name || e.Equivalent == name
}
