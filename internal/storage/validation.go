// Package storage provides the data persistence layer for the pantry application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidItem        = errors.New("invalid inventory item")
	ErrInvalidEvent       = errors.New("invalid consumption event")
	ErrInvalidEdge        = errors.New("invalid equivalency edge")
	ErrNotOwner           = errors.New("edge belongs to another household")
	ErrSystemEdgeReadOnly = errors.New("system edges cannot be changed by a household")
	ErrInsufficientStock  = errors.New("no stock left to consume")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validQuantity(q float64) bool {
	return !math.IsNaN(q) && !math.IsInf(q, 0)
}

// validateProduct validates a product before it is stored.
func validateProduct(p *model.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product", ErrNilParameter)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProduct)
	}
	return nil
}

// validateItem validates an inventory item before it is stored.
func validateItem(item *model.InventoryItem) error {
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	if item.HouseholdID == "" {
		return fmt.Errorf("%w: missing household ID", ErrInvalidItem)
	}
	if item.ProductKey() == "" {
		return fmt.Errorf("%w: missing product ID", ErrInvalidItem)
	}
	if !validQuantity(item.Quantity) || item.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be a non-negative number", ErrInvalidItem)
	}
	if item.PurchaseDate.IsZero() {
		return fmt.Errorf("%w: missing purchase date", ErrInvalidItem)
	}
	return nil
}

// validateEvent validates a consumption event before it is appended.
func validateEvent(e *model.ConsumptionEvent) error {
	if e == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if e.HouseholdID == "" {
		return fmt.Errorf("%w: missing household ID", ErrInvalidEvent)
	}
	if !e.Valid() {
		return fmt.Errorf("%w: needs a product and a positive quantity", ErrInvalidEvent)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	return nil
}

// validateEdge enforces the write-side rules: no self reference, confidence in (0, 1],
// a parseable ratio and a scope consistent with its household.
func validateEdge(edge *model.EquivalencyEdge) error {
	if edge == nil {
		return fmt.Errorf("%w: edge", ErrNilParameter)
	}
	if err := edge.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEdge, err)
	}
	if edge.RatioMalformed || edge.Ratio.IsZero() {
		return fmt.Errorf("%w: ratio must have the form a:b with positive parts", ErrInvalidEdge)
	}
	return nil
}
