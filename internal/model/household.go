package model

import "time"

// Household groups inventory, consumption history and equivalency overrides.
type Household struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
}

// ShoppingListDraft is a ranked recommendation list a household saved for later.
type ShoppingListDraft struct {
	CreatedAt   time.Time       `json:"created_at"`
	ID          string          `json:"id"`
	HouseholdID string          `json:"household_id"`
	Items       Recommendations `json:"items"`
}
