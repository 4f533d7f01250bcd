package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS households (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS products (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					normalized_name TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					brand TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_products_normalized_name ON products(normalized_name)`,

				`CREATE TABLE IF NOT EXISTS inventory_items (
					id TEXT PRIMARY KEY,
					household_id TEXT NOT NULL,
					product_id TEXT NOT NULL,
					quantity REAL NOT NULL CHECK (quantity >= 0),
					unit TEXT NOT NULL DEFAULT '',
					purchase_date DATETIME NOT NULL,
					expiration_date DATETIME,
					is_consumed INTEGER NOT NULL DEFAULT 0,
					FOREIGN KEY (household_id) REFERENCES households(id),
					FOREIGN KEY (product_id) REFERENCES products(id)
				)`,
				`CREATE INDEX idx_inventory_household ON inventory_items(household_id, is_consumed)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add append-only consumption log",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS consumption_events (
					id TEXT PRIMARY KEY,
					household_id TEXT NOT NULL,
					product_id TEXT NOT NULL,
					quantity_delta REAL NOT NULL CHECK (quantity_delta > 0),
					occurred_at DATETIME NOT NULL,
					FOREIGN KEY (household_id) REFERENCES households(id),
					FOREIGN KEY (product_id) REFERENCES products(id)
				)`,
				`CREATE INDEX idx_consumption_household_time ON consumption_events(household_id, occurred_at)`,
				// The log is append-only.
				`CREATE TRIGGER consumption_events_no_update
					BEFORE UPDATE ON consumption_events
					BEGIN SELECT RAISE(ABORT, 'consumption events are immutable'); END`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add equivalency edges",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS equivalency_edges (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					subject TEXT NOT NULL,
					equivalent TEXT NOT NULL,
					confidence REAL NOT NULL CHECK (confidence > 0 AND confidence <= 1),
					ratio TEXT NOT NULL DEFAULT '1:1',
					bidirectional INTEGER NOT NULL DEFAULT 0,
					scope TEXT NOT NULL CHECK (scope IN ('system', 'household')),
					household_id TEXT NOT NULL DEFAULT '',
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					CHECK (subject <> equivalent),
					UNIQUE (scope, household_id, subject, equivalent)
				)`,
				`CREATE INDEX idx_edges_subject ON equivalency_edges(scope, household_id, subject)`,
				`CREATE INDEX idx_edges_equivalent ON equivalency_edges(scope, household_id, equivalent)`,
			})
		},
	},
	{
		Version:     4,
		Description: "Add shopping list drafts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS shopping_list_drafts (
					id TEXT PRIMARY KEY,
					household_id TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					FOREIGN KEY (household_id) REFERENCES households(id)
				)`,
				`CREATE TABLE IF NOT EXISTS shopping_list_items (
					draft_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					product_id TEXT NOT NULL,
					product_name TEXT NOT NULL DEFAULT '',
					predicted_quantity REAL NOT NULL,
					unit TEXT NOT NULL DEFAULT '',
					priority INTEGER NOT NULL,
					reason TEXT NOT NULL DEFAULT '',
					confidence REAL NOT NULL,
					source TEXT NOT NULL,
					PRIMARY KEY (draft_id, position),
					FOREIGN KEY (draft_id) REFERENCES shopping_list_drafts(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_drafts_household ON shopping_list_drafts(household_id, created_at)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
