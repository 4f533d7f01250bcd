package model

import (
	"fmt"
	"time"
)

// Scope is the precedence tier of an equivalency edge.
type Scope string

// Edge scopes.
const (
	ScopeSystem    Scope = "system"
	ScopeHousehold Scope = "household"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeSystem || s == ScopeHousehold
}

// MalformedRatioPenalty scales the confidence of an edge whose ratio could not be parsed.
const MalformedRatioPenalty = 0.9

// EquivalencyEdge states that Subject may be substituted by Equivalent.
type EquivalencyEdge struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Ratio          Ratio     `json:"ratio"`
	Subject        FoodName  `json:"subject"`
	Equivalent     FoodName  `json:"equivalent"`
	Scope          Scope     `json:"scope"`
	HouseholdID    string    `json:"household_id,omitempty"`
	ID             int64     `json:"id"`
	Confidence     float64   `json:"confidence"`
	RatioMalformed bool      `json:"ratio_malformed"`
	Bidirectional  bool      `json:"bidirectional"`
	Active         bool      `json:"active"`
}

// NewEquivalencyEdge builds an active edge, parsing the raw ratio once.
// An unparseable ratio becomes 1:1 and the edge is flagged as malformed.
func NewEquivalencyEdge(subject, equivalent FoodName, confidence float64, rawRatio string, bidirectional bool, scope Scope, householdID string) EquivalencyEdge {
	edge := EquivalencyEdge{
		Subject:       subject,
		Equivalent:    equivalent,
		Confidence:    confidence,
		Bidirectional: bidirectional,
		Scope:         scope,
		HouseholdID:   householdID,
		Active:        true,
	}
	edge.SetRawRatio(rawRatio)
	return edge
}

// SetRawRatio parses raw into the edge's ratio, falling back to 1:1.
func (e *EquivalencyEdge) SetRawRatio(raw string) {
	ratio, err := ParseRatio(raw)
	if err != nil {
		e.Ratio = OneToOne
		e.RatioMalformed = true
		return
	}
	e.Ratio = ratio
	e.RatioMalformed = false
}

// IsSelfReference reports whether the edge points at its own subject.
func (e EquivalencyEdge) IsSelfReference() bool {
	return e.Subject == e.Equivalent
}

// Validate enforces the write-side rules for edges.
func (e EquivalencyEdge) Validate() error {
	if e.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if e.Equivalent == "" {
		return fmt.Errorf("equivalent is required")
	}
	if e.IsSelfReference() {
		return fmt.Errorf("edge %q cannot reference itself", e.Subject)
	}
	if e.Confidence <= 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence must be in (0, 1], got %.2f", e.Confidence)
	}
	if !e.Scope.Valid() {
		return fmt.Errorf("invalid scope %q", e.Scope)
	}
	if e.Scope == ScopeHousehold && e.HouseholdID == "" {
		return fmt.Errorf("household edges require a household id")
	}
	if e.Scope == ScopeSystem && e.HouseholdID != "" {
		return fmt.Errorf("system edges cannot belong to a household")
	}
	return nil
}
