package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/google/uuid"
)

// SaveDraft persists a ranked shopping list. Items keep their order.
func (s *SQLiteStorage) SaveDraft(ctx context.Context, draft *model.ShoppingListDraft) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("%w: draft", ErrNilParameter)
	}
	if err := validateString(draft.HouseholdID, "household id"); err != nil {
		return err
	}
	if err := draft.Items.Validate(); err != nil {
		return fmt.Errorf("invalid draft: %w", err)
	}

	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureHousehold(ctx, tx, draft.HouseholdID, ""); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_list_drafts (id, household_id, created_at) VALUES (?, ?, ?)`,
			draft.ID, draft.HouseholdID, draft.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to save draft: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO shopping_list_items (
				draft_id, position, product_id, product_name, predicted_quantity,
				unit, priority, reason, confidence, source
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare draft items: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, item := range draft.Items {
			if _, err := stmt.ExecContext(ctx,
				draft.ID, i, item.ProductID, item.ProductName, item.PredictedQuantity,
				item.Unit, item.Priority, item.Reason, item.Confidence, string(item.Source)); err != nil {
				return fmt.Errorf("failed to save draft item %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetDraft retrieves a draft with its items.
func (s *SQLiteStorage) GetDraft(ctx context.Context, id string) (*model.ShoppingListDraft, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var draft model.ShoppingListDraft
	err := s.db.QueryRowContext(ctx,
		`SELECT id, household_id, created_at FROM shopping_list_drafts WHERE id = ?`, id,
	).Scan(&draft.ID, &draft.HouseholdID, &draft.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("draft %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, predicted_quantity, unit, priority, reason, confidence, source
		FROM shopping_list_items
		WHERE draft_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query draft items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	draft.Items = model.Recommendations{}
	for rows.Next() {
		var (
			rec    model.Recommendation
			source string
		)
		if err := rows.Scan(&rec.ProductID, &rec.ProductName, &rec.PredictedQuantity, &rec.Unit,
			&rec.Priority, &rec.Reason, &rec.Confidence, &source); err != nil {
			return nil, fmt.Errorf("failed to scan draft item: %w", err)
		}
		rec.Source = model.RecommendationSource(source)
		draft.Items = append(draft.Items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draft items: %w", err)
	}

	return &draft, nil
}

// ListDrafts returns the household's drafts, newest first, without their items.
func (s *SQLiteStorage) ListDrafts(ctx context.Context, householdID string) ([]model.ShoppingListDraft, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, household_id, created_at FROM shopping_list_drafts
		WHERE household_id = ?
		ORDER BY created_at DESC, id
	`, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drafts []model.ShoppingListDraft
	for rows.Next() {
		var d model.ShoppingListDraft
		if err := rows.Scan(&d.ID, &d.HouseholdID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}
