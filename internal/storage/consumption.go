package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/google/uuid"
)

// RecordConsumption appends an event to the consumption log without touching stock.
// Used when importing history.
func (s *SQLiteStorage) RecordConsumption(ctx context.Context, event *model.ConsumptionEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEvent(event); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if err := ensureHousehold(ctx, s.db, event.HouseholdID, ""); err != nil {
		return err
	}
	return appendEvent(ctx, s.db, event)
}

func appendEvent(ctx context.Context, db execer, event *model.ConsumptionEvent) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO consumption_events (id, household_id, product_id, quantity_delta, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, event.HouseholdID, event.ProductID, event.QuantityDelta, event.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append consumption event: %w", err)
	}
	return nil
}

// ConsumptionEvents returns the household's events at or after since, oldest first.
func (s *SQLiteStorage) ConsumptionEvents(ctx context.Context, householdID string, since time.Time) ([]model.ConsumptionEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(householdID, "household id"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, household_id, product_id, quantity_delta, occurred_at
		FROM consumption_events
		WHERE household_id = ? AND occurred_at >= ?
		ORDER BY occurred_at, id
	`, householdID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query consumption events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.ConsumptionEvent
	for rows.Next() {
		var e model.ConsumptionEvent
		if err := rows.Scan(&e.ID, &e.HouseholdID, &e.ProductID, &e.QuantityDelta, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan consumption event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate consumption events: %w", err)
	}

	return events, nil
}
