// Package importer loads inventory and consumption history from CSV files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing required column")

// InventoryRow is one parsed line of an inventory CSV.
type InventoryRow struct {
	PurchaseDate   time.Time
	ExpirationDate *time.Time
	Name           string
	Unit           string
	Category       string
	Line           int
	Quantity       float64
	Frozen         bool
}

// EventRow is one parsed line of a consumption history CSV.
type EventRow struct {
	OccurredAt time.Time
	Name       string
	Line       int
	Quantity   float64
}

// RowError reports a line that could not be parsed or stored.
type RowError struct {
	Err  error
	Line int
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	names, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	h := make(header, len(names))
	for i, name := range names {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return h, nil
}

func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ReadInventoryCSV parses an inventory CSV with the columns name and quantity, and
// optionally unit, category, purchase_date, expiration_date and frozen. Bad lines are
// returned as RowErrors and do not stop the read.
func ReadInventoryCSV(r io.Reader, now time.Time) ([]InventoryRow, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, "name", "quantity")
	if err != nil {
		return nil, nil, err
	}

	var rows []InventoryRow
	var rowErrs []RowError
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, rowErrs, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		row, err := parseInventoryRow(h, record, now)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}

	return rows, rowErrs, nil
}

func parseInventoryRow(h header, record []string, now time.Time) (InventoryRow, error) {
	row := InventoryRow{
		Name:     h.get(record, "name"),
		Unit:     h.get(record, "unit"),
		Category: h.get(record, "category"),
	}
	if row.Name == "" {
		return row, fmt.Errorf("name is empty")
	}

	qty, err := ParseQuantity(h.get(record, "quantity"))
	if err != nil {
		return row, err
	}
	row.Quantity = qty

	row.PurchaseDate = now
	if raw := h.get(record, "purchase_date"); raw != "" {
		if row.PurchaseDate, err = ParseDate(raw, now.Location()); err != nil {
			return row, fmt.Errorf("purchase_date: %w", err)
		}
	}
	if raw := h.get(record, "expiration_date"); raw != "" {
		expires, err := ParseDate(raw, now.Location())
		if err != nil {
			return row, fmt.Errorf("expiration_date: %w", err)
		}
		row.ExpirationDate = &expires
	}
	if raw := h.get(record, "frozen"); raw != "" {
		if row.Frozen, err = strconv.ParseBool(raw); err != nil {
			return row, fmt.Errorf("frozen: %w", err)
		}
	}

	return row, nil
}

// ReadEventsCSV parses a consumption CSV with the columns name, quantity and occurred_at.
func ReadEventsCSV(r io.Reader, loc *time.Location) ([]EventRow, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, "name", "quantity", "occurred_at")
	if err != nil {
		return nil, nil, err
	}

	var rows []EventRow
	var rowErrs []RowError
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, rowErrs, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		row := EventRow{Line: line, Name: h.get(record, "name")}
		if row.Name == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("name is empty")})
			continue
		}
		if row.Quantity, err = ParseQuantity(h.get(record, "quantity")); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if row.OccurredAt, err = ParseDate(h.get(record, "occurred_at"), loc); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("occurred_at: %w", err)})
			continue
		}
		rows = append(rows, row)
	}

	return rows, rowErrs, nil
}

// ParseQuantity parses a strictly positive quantity.
func ParseQuantity(raw string) (float64, error) {
	qty, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	if qty <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %g", qty)
	}
	return qty, nil
}

// ParseDate accepts RFC 3339 timestamps and YYYY-MM-DD dates in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}
