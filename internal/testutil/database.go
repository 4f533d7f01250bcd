// Package testutil provides test utilities for the pantry-intelligence project.
// It sets up isolated in-memory databases and seeds them with pantry data.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/service"
	"github.com/Veraticus/pantry-intelligence/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	SystemEdges    []model.EquivalencyEdge
	SkipMigrations bool
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
//
// Example:
//
//	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
//		SystemEdges: []model.EquivalencyEdge{
//			model.NewEquivalencyEdge("butter", "margarine", 0.8, "1:1", true, model.ScopeSystem, ""),
//		},
//	})
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	// Run migrations unless skipped
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if len(opts.SystemEdges) > 0 {
		if _, err := store.ImportSystemEdges(ctx, opts.SystemEdges); err != nil {
			t.Fatalf("failed to seed system edges: %v", err)
		}
	}

	// Run custom setup
	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustAddItem stocks a product for the household or fails the test.
// The product ID doubles as its name unless name is given.
func (db *TestDB) MustAddItem(householdID, productID, name string, quantity float64, purchased time.Time, expires *time.Time) *model.InventoryItem {
	db.t.Helper()

	if name == "" {
		name = productID
	}
	item := &model.InventoryItem{
		HouseholdID:    householdID,
		Product:        &model.Product{ID: productID, Name: name},
		Quantity:       quantity,
		Unit:           "each",
		PurchaseDate:   purchased,
		ExpirationDate: expires,
	}
	if err := db.Storage.AddInventoryItem(context.Background(), item); err != nil {
		db.t.Fatalf("failed to add inventory item %q: %v", productID, err)
	}
	return item
}

// MustConsume records a consumption event or fails the test.
func (db *TestDB) MustConsume(householdID, productID string, quantity float64, at time.Time) {
	db.t.Helper()

	err := db.Storage.RecordConsumption(context.Background(), &model.ConsumptionEvent{
		HouseholdID:   householdID,
		ProductID:     productID,
		QuantityDelta: quantity,
		OccurredAt:    at,
	})
	if err != nil {
		db.t.Fatalf("failed to record consumption of %q: %v", productID, err)
	}
}

// MustAddHouseholdEdge stores a household override or fails the test.
func (db *TestDB) MustAddHouseholdEdge(householdID string, subject, equivalent model.FoodName, confidence float64, ratio string) *model.EquivalencyEdge {
	db.t.Helper()

	edge := model.NewEquivalencyEdge(subject, equivalent, confidence, ratio, false, model.ScopeHousehold, householdID)
	if err := db.Storage.CreateEdge(context.Background(), &edge); err != nil {
		db.t.Fatalf("failed to add household edge %s -> %s: %v", subject, equivalent, err)
	}
	return &edge
}
