package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/equivalency"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/service"
)

var (
	_ equivalency.Store = (*SQLiteStorage)(nil)
	_ service.Storage   = (*SQLiteStorage)(nil)
)

const edgeColumns = `id, subject, equivalent, confidence, ratio, bidirectional,
	scope, household_id, is_active, created_at, updated_at`

func scanEdge(scanner interface{ Scan(...any) error }) (model.EquivalencyEdge, error) {
	var (
		edge     model.EquivalencyEdge
		rawRatio string
		scope    string
	)

	err := scanner.Scan(
		&edge.ID, &edge.Subject, &edge.Equivalent, &edge.Confidence, &rawRatio, &edge.Bidirectional,
		&scope, &edge.HouseholdID, &edge.Active, &edge.CreatedAt, &edge.UpdatedAt,
	)
	if err != nil {
		return model.EquivalencyEdge{}, err
	}

	edge.Scope = model.Scope(scope)
	edge.SetRawRatio(rawRatio)
	return edge, nil
}

// storedRatio is the text persisted for an edge. Malformed ratios are stored empty
// so that they read back as malformed.
func storedRatio(edge *model.EquivalencyEdge) string {
	if edge.RatioMalformed {
		return ""
	}
	return edge.Ratio.String()
}

func (s *SQLiteStorage) queryEdges(ctx context.Context, query string, args ...any) ([]model.EquivalencyEdge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query equivalency edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []model.EquivalencyEdge
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equivalency edge: %w", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate equivalency edges: %w", err)
	}

	return edges, nil
}

// SystemEdges returns active system edges touching name.
func (s *SQLiteStorage) SystemEdges(ctx context.Context, name model.FoodName) ([]model.EquivalencyEdge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryEdges(ctx, `
		SELECT `+edgeColumns+` FROM equivalency_edges
		WHERE scope = 'system' AND is_active = 1 AND (subject = ? OR equivalent = ?)
		ORDER BY id
	`, string(name), string(name))
}

// HouseholdEdges returns the household's active edges touching name.
func (s *SQLiteStorage) HouseholdEdges(ctx context.Context, householdID string, name model.FoodName) ([]model.EquivalencyEdge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(householdID, "household id"); err != nil {
		return nil, err
	}

	return s.queryEdges(ctx, `
		SELECT `+edgeColumns+` FROM equivalency_edges
		WHERE scope = 'household' AND household_id = ? AND is_active = 1
			AND (subject = ? OR equivalent = ?)
		ORDER BY id
	`, householdID, string(name), string(name))
}

// ListEquivalencyEdges returns edges matching the filter.
func (s *SQLiteStorage) ListEquivalencyEdges(ctx context.Context, filter service.EdgeFilter) ([]model.EquivalencyEdge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + edgeColumns + ` FROM equivalency_edges WHERE 1 = 1`
	var args []any
	if filter.Scope != "" {
		query += ` AND scope = ?`
		args = append(args, string(filter.Scope))
	}
	if filter.HouseholdID != "" {
		query += ` AND household_id = ?`
		args = append(args, filter.HouseholdID)
	}
	if filter.Name != "" {
		query += ` AND (subject = ? OR equivalent = ?)`
		args = append(args, string(filter.Name), string(filter.Name))
	}
	if !filter.IncludeInactive {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY scope, subject, equivalent, id`

	return s.queryEdges(ctx, query, args...)
}

// GetEdge retrieves an edge by ID.
func (s *SQLiteStorage) GetEdge(ctx context.Context, id int64) (*model.EquivalencyEdge, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	edge, err := scanEdge(s.db.QueryRowContext(ctx,
		`SELECT `+edgeColumns+` FROM equivalency_edges WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("equivalency edge %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get equivalency edge: %w", err)
	}
	return &edge, nil
}

// CreateEdge stores a new edge and assigns its ID. A household may hold only one
// edge per subject and equivalent.
func (s *SQLiteStorage) CreateEdge(ctx context.Context, edge *model.EquivalencyEdge) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEdge(edge); err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if edge.Scope == model.ScopeHousehold {
			if err := ensureHousehold(ctx, tx, edge.HouseholdID, ""); err != nil {
				return err
			}
		}

		var exists int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM equivalency_edges
			WHERE scope = ? AND household_id = ? AND subject = ? AND equivalent = ?
		`, string(edge.Scope), edge.HouseholdID, string(edge.Subject), string(edge.Equivalent)).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check for existing edge: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("edge %s -> %s: %w", edge.Subject, edge.Equivalent, common.ErrDuplicateEntry)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO equivalency_edges (
				subject, equivalent, confidence, ratio, bidirectional,
				scope, household_id, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, string(edge.Subject), string(edge.Equivalent), edge.Confidence, storedRatio(edge),
			boolToInt(edge.Bidirectional), string(edge.Scope), edge.HouseholdID,
			boolToInt(edge.Active), now, now)
		if err != nil {
			return fmt.Errorf("failed to create equivalency edge: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read edge id: %w", err)
		}
		edge.ID = id
		edge.CreatedAt = now
		edge.UpdatedAt = now
		return nil
	})
}

// ownedEdge loads an edge and checks that householdID may change it.
func ownedEdge(ctx context.Context, tx *sql.Tx, householdID string, id int64) (model.EquivalencyEdge, error) {
	edge, err := scanEdge(tx.QueryRowContext(ctx,
		`SELECT `+edgeColumns+` FROM equivalency_edges WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EquivalencyEdge{}, fmt.Errorf("household %s edge %d: %w", householdID, id, common.ErrNotFound)
		}
		return model.EquivalencyEdge{}, fmt.Errorf("failed to get equivalency edge: %w", err)
	}

	if edge.Scope == model.ScopeSystem {
		return model.EquivalencyEdge{}, fmt.Errorf("edge %d: %w", id, ErrSystemEdgeReadOnly)
	}
	if edge.HouseholdID != householdID {
		return model.EquivalencyEdge{}, fmt.Errorf("edge %d: %w", id, ErrNotOwner)
	}
	return edge, nil
}

// UpdateHouseholdEdge changes the confidence, ratio, direction and active flag of an
// edge owned by householdID. Subject, equivalent and scope are fixed.
func (s *SQLiteStorage) UpdateHouseholdEdge(ctx context.Context, householdID string, edge *model.EquivalencyEdge) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(householdID, "household id"); err != nil {
		return err
	}
	if edge == nil {
		return fmt.Errorf("%w: edge", ErrNilParameter)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := ownedEdge(ctx, tx, householdID, edge.ID)
		if err != nil {
			return err
		}

		updated := current
		updated.Confidence = edge.Confidence
		updated.Ratio = edge.Ratio
		updated.RatioMalformed = edge.RatioMalformed
		updated.Bidirectional = edge.Bidirectional
		updated.Active = edge.Active
		if err := validateEdge(&updated); err != nil {
			return err
		}

		updated.UpdatedAt = time.Now().UTC()
		_, err = tx.ExecContext(ctx, `
			UPDATE equivalency_edges
			SET confidence = ?, ratio = ?, bidirectional = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`, updated.Confidence, storedRatio(&updated), boolToInt(updated.Bidirectional),
			boolToInt(updated.Active), updated.UpdatedAt, updated.ID)
		if err != nil {
			return fmt.Errorf("failed to update equivalency edge: %w", err)
		}

		*edge = updated
		return nil
	})
}

// DeleteHouseholdEdge removes an edge owned by householdID.
func (s *SQLiteStorage) DeleteHouseholdEdge(ctx context.Context, householdID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(householdID, "household id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := ownedEdge(ctx, tx, householdID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM equivalency_edges WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete equivalency edge: %w", err)
		}
		return nil
	})
}

// SetEdgeActive toggles an edge without deleting it. An empty householdID addresses
// system edges; otherwise the edge must belong to the household.
func (s *SQLiteStorage) SetEdgeActive(ctx context.Context, householdID string, id int64, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if householdID != "" {
			if _, err := ownedEdge(ctx, tx, householdID, id); err != nil {
				return err
			}
		}

		query := `UPDATE equivalency_edges SET is_active = ?, updated_at = ? WHERE id = ?`
		if householdID == "" {
			query += ` AND scope = 'system'`
		}
		result, err := tx.ExecContext(ctx, query, boolToInt(active), time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("failed to update equivalency edge: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			if householdID == "" {
				return fmt.Errorf("system edge %d: %w", id, common.ErrNotFound)
			}
			return fmt.Errorf("household %s edge %d: %w", householdID, id, common.ErrNotFound)
		}
		return nil
	})
}

// RestoreToDefault removes the household's override for subject and equivalent so the
// system edge applies again. It returns the number of edges removed.
func (s *SQLiteStorage) RestoreToDefault(ctx context.Context, householdID string, subject, equivalent model.FoodName) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(householdID, "household id"); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM equivalency_edges
		WHERE scope = 'household' AND household_id = ? AND subject = ? AND equivalent = ?
	`, householdID, string(subject), string(equivalent))
	if err != nil {
		return 0, fmt.Errorf("failed to restore default edge: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count restored edges: %w", err)
	}
	return n, nil
}

// ImportSystemEdges upserts system edges in one transaction. Malformed ratios are kept
// so that resolution can apply its penalty; they are logged here.
func (s *SQLiteStorage) ImportSystemEdges(ctx context.Context, edges []model.EquivalencyEdge) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(edges) == 0 {
		return 0, fmt.Errorf("%w: edges", ErrEmptySlice)
	}

	for i := range edges {
		if edges[i].Scope != model.ScopeSystem {
			return 0, fmt.Errorf("%w: edge %d is not a system edge", ErrInvalidEdge, i)
		}
		if err := edges[i].Validate(); err != nil {
			return 0, fmt.Errorf("%w: edge %d: %v", ErrInvalidEdge, i, err)
		}
	}

	now := time.Now().UTC()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO equivalency_edges (
				subject, equivalent, confidence, ratio, bidirectional,
				scope, household_id, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, 'system', '', ?, ?, ?)
			ON CONFLICT(scope, household_id, subject, equivalent) DO UPDATE SET
				confidence = excluded.confidence,
				ratio = excluded.ratio,
				bidirectional = excluded.bidirectional,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare edge import: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range edges {
			edge := &edges[i]
			if edge.RatioMalformed {
				slog.Warn("Importing system edge with malformed ratio",
					"subject", edge.Subject,
					"equivalent", edge.Equivalent)
			}
			if _, err := stmt.ExecContext(ctx,
				string(edge.Subject), string(edge.Equivalent), edge.Confidence, storedRatio(edge),
				boolToInt(edge.Bidirectional), boolToInt(edge.Active), now, now); err != nil {
				return fmt.Errorf("failed to import edge %s -> %s: %w", edge.Subject, edge.Equivalent, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Imported system equivalency edges", "count", len(edges))
	return len(edges), nil
}
