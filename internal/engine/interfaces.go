package engine

import (
	"context"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/equivalency"
	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// InventoryProvider returns a household's current, unconsumed stock with products joined.
type InventoryProvider interface {
	CurrentInventory(ctx context.Context, householdID string) ([]model.InventoryItem, error)
}

// ConsumptionProvider returns consumption events recorded at or after since.
type ConsumptionProvider interface {
	ConsumptionEvents(ctx context.Context, householdID string, since time.Time) ([]model.ConsumptionEvent, error)
}

// Resolver looks up equivalent food names.
type Resolver interface {
	Resolve(ctx context.Context, name model.FoodName, householdID string) ([]equivalency.Candidate, error)
}
