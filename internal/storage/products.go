package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/normalize"
	"github.com/google/uuid"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EnsureHousehold creates the household if it does not exist yet.
func (s *SQLiteStorage) EnsureHousehold(ctx context.Context, id, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "household id"); err != nil {
		return err
	}
	return ensureHousehold(ctx, s.db, id, name)
}

func ensureHousehold(ctx context.Context, db execer, id, name string) error {
	if name == "" {
		name = id
	}
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO households (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now())
	if err != nil {
		return fmt.Errorf("failed to ensure household %s: %w", id, err)
	}
	return nil
}

// GetHousehold retrieves a household by ID.
func (s *SQLiteStorage) GetHousehold(ctx context.Context, id string) (*model.Household, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var h model.Household
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM households WHERE id = ?`, id,
	).Scan(&h.ID, &h.Name, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("household %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return &h, nil
}

// SaveProduct inserts or updates a product. An empty ID is assigned a new UUID.
func (s *SQLiteStorage) SaveProduct(ctx context.Context, product *model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProduct(product); err != nil {
		return err
	}
	return saveProduct(ctx, s.db, product)
}

func saveProduct(ctx context.Context, db execer, product *model.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO products (id, name, normalized_name, category, brand)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			category = excluded.category,
			brand = excluded.brand
	`, product.ID, product.Name, string(normalize.Normalize(product.Name)), product.Category, product.Brand)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var p model.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, brand FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Category, &p.Brand)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// FindProductByName returns the first product whose normalized name matches name.
func (s *SQLiteStorage) FindProductByName(ctx context.Context, name string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	key := normalize.Normalize(name)
	var p model.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, brand FROM products
		WHERE normalized_name = ?
		ORDER BY created_at, id
		LIMIT 1
	`, string(key)).Scan(&p.ID, &p.Name, &p.Category, &p.Brand)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %q: %w", name, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &p, nil
}

// ListProducts returns every product ordered by name.
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, category, brand FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Brand); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
