// Package model defines the core data structures for the pantry application.
package model

import (
	"math"
	"time"
)

// FoodName is a normalized food key: lower-case, single-spaced, no punctuation.
// Values are produced by the normalize package and never persisted.
type FoodName string

// String returns the underlying key.
func (n FoodName) String() string {
	return string(n)
}

// Product is a purchasable item owned by the inventory store.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
}

// InventoryItem is one unit of stock a household holds.
type InventoryItem struct {
	PurchaseDate   time.Time  `json:"purchase_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Product        *Product   `json:"product,omitempty"`
	ID             string     `json:"id"`
	HouseholdID    string     `json:"household_id"`
	ProductID      string     `json:"product_id"`
	Unit           string     `json:"unit"`
	Quantity       float64    `json:"quantity"`
	IsConsumed     bool       `json:"is_consumed"`
}

// Valid reports whether the item carries enough data to take part in a computation.
// Items with a missing product reference or a negative quantity are skipped.
func (i InventoryItem) Valid() bool {
	if i.Product == nil || i.ProductKey() == "" {
		return false
	}
	if math.IsNaN(i.Quantity) || math.IsInf(i.Quantity, 0) {
		return false
	}
	return i.Quantity >= 0
}

// ProductKey returns the product identifier, preferring the joined product.
func (i InventoryItem) ProductKey() string {
	if i.Product != nil && i.Product.ID != "" {
		return i.Product.ID
	}
	return i.ProductID
}

// ConsumptionEvent records a removal from stock in the append-only audit log.
type ConsumptionEvent struct {
	OccurredAt    time.Time `json:"occurred_at"`
	ID            string    `json:"id"`
	HouseholdID   string    `json:"household_id"`
	ProductID     string    `json:"product_id"`
	QuantityDelta float64   `json:"quantity_delta"`
}

// Valid reports whether the event can contribute to a velocity.
func (e ConsumptionEvent) Valid() bool {
	if e.ProductID == "" {
		return false
	}
	if math.IsNaN(e.QuantityDelta) || math.IsInf(e.QuantityDelta, 0) {
		return false
	}
	return e.QuantityDelta > 0
}

// Velocity is a product's consumption rate over an analysis window.
type Velocity struct {
	Total       float64 `json:"total"`
	EventsCount int     `json:"events_count"`
	WeeklyRate  float64 `json:"weekly_rate"`
}
