package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/taxonomy"
)

// Store is the subset of storage the importer writes through.
type Store interface {
	FindProductByName(ctx context.Context, name string) (*model.Product, error)
	SaveProduct(ctx context.Context, product *model.Product) error
	AddInventoryItem(ctx context.Context, item *model.InventoryItem) error
	RecordConsumption(ctx context.Context, event *model.ConsumptionEvent) error
}

// Result summarizes one import run.
type Result struct {
	Errors   []RowError
	Imported int
}

// Importer writes parsed rows for one household.
type Importer struct {
	store    Store
	taxonomy *taxonomy.Taxonomy
	progress func()
}

// New creates an importer. tax may be nil, in which case no expiration dates are estimated.
func New(store Store, tax *taxonomy.Taxonomy) *Importer {
	return &Importer{store: store, taxonomy: tax}
}

// OnProgress registers a callback invoked once per processed row.
func (im *Importer) OnProgress(fn func()) {
	im.progress = fn
}

func (im *Importer) tick() {
	if im.progress != nil {
		im.progress()
	}
}

// EnsureProduct returns the product with the given name, creating it when none exists.
// An empty category is filled from the taxonomy.
func EnsureProduct(ctx context.Context, store Store, tax *taxonomy.Taxonomy, name, category string) (*model.Product, error) {
	product, err := store.FindProductByName(ctx, name)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up product %q: %w", name, err)
	}

	if category == "" && tax != nil {
		if entry, ok := tax.Lookup(name); ok {
			category = entry.Category
		}
	}
	product = &model.Product{Name: strings.TrimSpace(name), Category: category}
	if err := store.SaveProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product %q: %w", name, err)
	}
	slog.Debug("Created product", "id", product.ID, "name", product.Name, "category", product.Category)
	return product, nil
}

// ImportInventory adds each row as a new inventory item. Rows that fail are reported
// in the result and the run continues; only context cancellation stops it early.
func (im *Importer) ImportInventory(ctx context.Context, householdID string, rows []InventoryRow) (Result, error) {
	var result Result
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := im.addInventoryRow(ctx, householdID, row); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			slog.Warn("Skipping inventory row", "line", row.Line, "name", row.Name, "error", err)
			result.Errors = append(result.Errors, RowError{Line: row.Line, Err: err})
		} else {
			result.Imported++
		}
		im.tick()
	}
	return result, nil
}

func (im *Importer) addInventoryRow(ctx context.Context, householdID string, row InventoryRow) error {
	product, err := EnsureProduct(ctx, im.store, im.taxonomy, row.Name, row.Category)
	if err != nil {
		return err
	}

	expires := row.ExpirationDate
	if expires == nil && im.taxonomy != nil {
		expires = im.taxonomy.DefaultExpiration(row.Name, row.PurchaseDate, row.Frozen)
	}

	return im.store.AddInventoryItem(ctx, &model.InventoryItem{
		HouseholdID:    householdID,
		ProductID:      product.ID,
		Product:        product,
		Quantity:       row.Quantity,
		Unit:           row.Unit,
		PurchaseDate:   row.PurchaseDate,
		ExpirationDate: expires,
	})
}

// ImportEvents appends each row to the consumption log without touching stock levels.
func (im *Importer) ImportEvents(ctx context.Context, householdID string, rows []EventRow) (Result, error) {
	var result Result
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := im.addEventRow(ctx, householdID, row); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			slog.Warn("Skipping consumption row", "line", row.Line, "name", row.Name, "error", err)
			result.Errors = append(result.Errors, RowError{Line: row.Line, Err: err})
		} else {
			result.Imported++
		}
		im.tick()
	}
	return result, nil
}

func (im *Importer) addEventRow(ctx context.Context, householdID string, row EventRow) error {
	product, err := EnsureProduct(ctx, im.store, im.taxonomy, row.Name, "")
	if err != nil {
		return err
	}

	return im.store.RecordConsumption(ctx, &model.ConsumptionEvent{
		HouseholdID:   householdID,
		ProductID:     product.ID,
		QuantityDelta: row.Quantity,
		OccurredAt:    row.OccurredAt.In(time.UTC),
	})
}
