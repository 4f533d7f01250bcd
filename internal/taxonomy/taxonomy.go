// Package taxonomy holds the food category tree and per-item storage lifetimes.
package taxonomy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/normalize"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTaxonomy []byte

// ErrDuplicateItem is returned when two items normalize to the same name.
var ErrDuplicateItem = errors.New("duplicate taxonomy item")

// Item is a leaf of the tree. Zero lifetimes mean unknown.
type Item struct {
	Name            string `yaml:"name"`
	ShelfLifeDays   int    `yaml:"shelf_life_days"`
	FreezerLifeDays int    `yaml:"freezer_life_days,omitempty"`
}

// Subcategory groups related items.
type Subcategory struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

// Category is the top level of the tree.
type Category struct {
	Name          string        `yaml:"name"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

// Entry is an item together with its place in the tree.
type Entry struct {
	Category    string
	Subcategory string
	Item        Item
}

// Taxonomy is an indexed category tree.
type Taxonomy struct {
	index      map[model.FoodName]Entry
	Categories []Category `yaml:"categories"`
}

// Load decodes a taxonomy from YAML and indexes its items by normalized name.
func Load(r io.Reader) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy: %w", err)
	}
	if err := t.buildIndex(); err != nil {
		return nil, err
	}
	return &t, nil
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
	defaultErr  error
)

// Default returns the embedded taxonomy, decoded once.
func Default() (*Taxonomy, error) {
	defaultOnce.Do(func() {
		defaultTax, defaultErr = Load(bytes.NewReader(defaultTaxonomy))
		if defaultErr != nil {
			defaultErr = fmt.Errorf("embedded taxonomy: %w", defaultErr)
		}
	})
	return defaultTax, defaultErr
}

func (t *Taxonomy) buildIndex() error {
	t.index = make(map[model.FoodName]Entry)
	for _, cat := range t.Categories {
		for _, sub := range cat.Subcategories {
			for _, item := range sub.Items {
				key := normalize.Normalize(item.Name)
				if key == "" {
					return fmt.Errorf("taxonomy item in %s/%s has no usable name", cat.Name, sub.Name)
				}
				if item.ShelfLifeDays < 0 || item.FreezerLifeDays < 0 {
					return fmt.Errorf("taxonomy item %q has a negative lifetime", item.Name)
				}
				if existing, ok := t.index[key]; ok {
					return fmt.Errorf("%w: %q in %s and %s", ErrDuplicateItem, key, existing.Category, cat.Name)
				}
				t.index[key] = Entry{Category: cat.Name, Subcategory: sub.Name, Item: item}
			}
		}
	}
	return nil
}

// Lookup finds an item by name, normalizing it first.
func (t *Taxonomy) Lookup(name string) (Entry, bool) {
	entry, ok := t.index[normalize.Normalize(name)]
	return entry, ok
}

// ShelfLife returns how long the item keeps at room or fridge temperature.
func (t *Taxonomy) ShelfLife(name string) (time.Duration, bool) {
	entry, ok := t.Lookup(name)
	if !ok || entry.Item.ShelfLifeDays == 0 {
		return 0, false
	}
	return time.Duration(entry.Item.ShelfLifeDays) * 24 * time.Hour, true
}

// FreezerLife returns how long the item keeps frozen.
func (t *Taxonomy) FreezerLife(name string) (time.Duration, bool) {
	entry, ok := t.Lookup(name)
	if !ok || entry.Item.FreezerLifeDays == 0 {
		return 0, false
	}
	return time.Duration(entry.Item.FreezerLifeDays) * 24 * time.Hour, true
}

// DefaultExpiration estimates an expiration date from the purchase date.
// It returns nil when the item is unknown.
func (t *Taxonomy) DefaultExpiration(name string, purchased time.Time, frozen bool) *time.Time {
	life, ok := t.ShelfLife(name)
	if frozen {
		life, ok = t.FreezerLife(name)
	}
	if !ok {
		return nil
	}
	expires := purchased.Add(life)
	return &expires
}

// Len reports the number of indexed items.
func (t *Taxonomy) Len() int {
	return len(t.index)
}
