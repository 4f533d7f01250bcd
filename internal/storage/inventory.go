package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/google/uuid"
)

// remainderEpsilon treats float dust left after consumption as empty.
const remainderEpsilon = 1e-9

// AddInventoryItem stores a new unit of stock. The household is created on first use.
func (s *SQLiteStorage) AddInventoryItem(ctx context.Context, item *model.InventoryItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateItem(item); err != nil {
		return err
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.ProductID = item.ProductKey()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureHousehold(ctx, tx, item.HouseholdID, ""); err != nil {
			return err
		}
		if item.Product != nil {
			if err := saveProduct(ctx, tx, item.Product); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_items (
				id, household_id, product_id, quantity, unit,
				purchase_date, expiration_date, is_consumed
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, item.ID, item.HouseholdID, item.ProductID, item.Quantity, item.Unit,
			item.PurchaseDate, nullTime(item.ExpirationDate), boolToInt(item.IsConsumed))
		if err != nil {
			return fmt.Errorf("failed to add inventory item: %w", err)
		}
		return nil
	})
}

const inventoryColumns = `
	i.id, i.household_id, i.product_id, i.quantity, i.unit,
	i.purchase_date, i.expiration_date, i.is_consumed,
	p.id, p.name, p.category, p.brand`

func scanInventoryItem(scanner interface{ Scan(...any) error }) (model.InventoryItem, error) {
	var (
		item       model.InventoryItem
		product    model.Product
		expiration sql.NullTime
	)

	err := scanner.Scan(
		&item.ID, &item.HouseholdID, &item.ProductID, &item.Quantity, &item.Unit,
		&item.PurchaseDate, &expiration, &item.IsConsumed,
		&product.ID, &product.Name, &product.Category, &product.Brand,
	)
	if err != nil {
		return model.InventoryItem{}, err
	}

	if expiration.Valid {
		exp := expiration.Time
		item.ExpirationDate = &exp
	}
	item.Product = &product
	return item, nil
}

// CurrentInventory returns the household's unconsumed items with their products joined.
func (s *SQLiteStorage) CurrentInventory(ctx context.Context, householdID string) ([]model.InventoryItem, error) {
	return s.listInventory(ctx, householdID, false)
}

// ListInventory returns the household's items, optionally including consumed ones.
func (s *SQLiteStorage) ListInventory(ctx context.Context, householdID string, includeConsumed bool) ([]model.InventoryItem, error) {
	return s.listInventory(ctx, householdID, includeConsumed)
}

func (s *SQLiteStorage) listInventory(ctx context.Context, householdID string, includeConsumed bool) ([]model.InventoryItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(householdID, "household id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.household_id = ?`
	if !includeConsumed {
		query += ` AND i.is_consumed = 0`
	}
	query += ` ORDER BY p.name, i.purchase_date, i.id`

	rows, err := s.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}

	return items, nil
}

// ConsumeInventory removes quantity of a product from the household's stock, earliest
// expiring items first, and appends the removal to the consumption log in the same
// transaction. Items reaching zero are marked consumed. It returns the recorded event,
// whose delta may be smaller than requested when stock runs out.
func (s *SQLiteStorage) ConsumeInventory(ctx context.Context, householdID, productID string, quantity float64, at time.Time) (*model.ConsumptionEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(householdID, "household id"); err != nil {
		return nil, err
	}
	if err := validateString(productID, "product id"); err != nil {
		return nil, err
	}
	if !validQuantity(quantity) || quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidEvent)
	}

	var event *model.ConsumptionEvent
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, quantity FROM inventory_items
			WHERE household_id = ? AND product_id = ? AND is_consumed = 0
			ORDER BY expiration_date IS NULL, expiration_date, purchase_date, id
		`, householdID, productID)
		if err != nil {
			return fmt.Errorf("failed to query stock: %w", err)
		}

		type stockRow struct {
			id       string
			quantity float64
		}
		var stock []stockRow
		for rows.Next() {
			var r stockRow
			if err := rows.Scan(&r.id, &r.quantity); err != nil {
				_ = rows.Close()
				return fmt.Errorf("failed to scan stock: %w", err)
			}
			stock = append(stock, r)
		}
		_ = rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate stock: %w", err)
		}

		remaining := quantity
		for _, r := range stock {
			if remaining <= remainderEpsilon {
				break
			}
			take := r.quantity
			if take > remaining {
				take = remaining
			}
			left := r.quantity - take
			consumed := left <= remainderEpsilon
			if consumed {
				left = 0
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE inventory_items SET quantity = ?, is_consumed = ? WHERE id = ?`,
				left, boolToInt(consumed), r.id); err != nil {
				return fmt.Errorf("failed to update inventory item %s: %w", r.id, err)
			}
			remaining -= take
		}

		removed := quantity - remaining
		if removed <= remainderEpsilon {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
		}
		if remaining > remainderEpsilon {
			slog.Warn("Consumed more than was in stock",
				"household_id", householdID,
				"product_id", productID,
				"requested", quantity,
				"removed", removed)
		}

		event = &model.ConsumptionEvent{
			ID:            uuid.NewString(),
			HouseholdID:   householdID,
			ProductID:     productID,
			QuantityDelta: removed,
			OccurredAt:    at,
		}
		return appendEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
