// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// EdgeFilter narrows equivalency edge listings. Zero values match everything.
type EdgeFilter struct {
	Scope           model.Scope
	HouseholdID     string
	Name            model.FoodName
	IncludeInactive bool
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Household and product operations
	EnsureHousehold(ctx context.Context, id, name string) error
	GetHousehold(ctx context.Context, id string) (*model.Household, error)
	SaveProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	FindProductByName(ctx context.Context, name string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)

	// Inventory operations
	AddInventoryItem(ctx context.Context, item *model.InventoryItem) error
	CurrentInventory(ctx context.Context, householdID string) ([]model.InventoryItem, error)
	ListInventory(ctx context.Context, householdID string, includeConsumed bool) ([]model.InventoryItem, error)
	ConsumeInventory(ctx context.Context, householdID, productID string, quantity float64, at time.Time) (*model.ConsumptionEvent, error)

	// Consumption log
	RecordConsumption(ctx context.Context, event *model.ConsumptionEvent) error
	ConsumptionEvents(ctx context.Context, householdID string, since time.Time) ([]model.ConsumptionEvent, error)

	// Equivalency rule store, read side
	SystemEdges(ctx context.Context, name model.FoodName) ([]model.EquivalencyEdge, error)
	HouseholdEdges(ctx context.Context, householdID string, name model.FoodName) ([]model.EquivalencyEdge, error)

	// Equivalency rule store, write side
	ListEquivalencyEdges(ctx context.Context, filter EdgeFilter) ([]model.EquivalencyEdge, error)
	GetEdge(ctx context.Context, id int64) (*model.EquivalencyEdge, error)
	CreateEdge(ctx context.Context, edge *model.EquivalencyEdge) error
	UpdateHouseholdEdge(ctx context.Context, householdID string, edge *model.EquivalencyEdge) error
	DeleteHouseholdEdge(ctx context.Context, householdID string, id int64) error
	SetEdgeActive(ctx context.Context, householdID string, id int64, active bool) error
	RestoreToDefault(ctx context.Context, householdID string, subject, equivalent model.FoodName) (int64, error)
	ImportSystemEdges(ctx context.Context, edges []model.EquivalencyEdge) (int, error)

	// Shopping list drafts
	SaveDraft(ctx context.Context, draft *model.ShoppingListDraft) error
	GetDraft(ctx context.Context, id string) (*model.ShoppingListDraft, error)
	ListDrafts(ctx context.Context, householdID string) ([]model.ShoppingListDraft, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ShoppingListWriter publishes a ranked shopping list somewhere outside the database.
type ShoppingListWriter interface {
	WriteShoppingList(ctx context.Context, draft *model.ShoppingListDraft) error
}
