// Package engine is the entry point to the pantry intelligence engine: availability
// checks, replenishment predictions and equivalent lookups over household snapshots.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/availability"
	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/consumption"
	"github.com/Veraticus/pantry-intelligence/internal/equivalency"
	"github.com/Veraticus/pantry-intelligence/internal/metrics"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/normalize"
	"github.com/Veraticus/pantry-intelligence/internal/predict"
	"github.com/Veraticus/pantry-intelligence/internal/recommend"
)

// Engine reads snapshots from its providers and never writes anything back.
type Engine struct {
	inventory   InventoryProvider
	consumption ConsumptionProvider
	resolver    Resolver
	matcher     *availability.Matcher
	analyzer    *consumption.Analyzer
	predictor   *predict.Predictor
	ranker      *recommend.Ranker
	metrics     *metrics.Recorder
	now         func() time.Time
	defaults    ReplenishmentOptions
}

// ReplenishmentOptions tunes PredictReplenishment. Zero fields take the defaults.
type ReplenishmentOptions struct {
	WindowDays  int
	HorizonDays int
	Cap         int
}

// DefaultReplenishmentOptions returns the standard 30 day window, 7 day horizon and 20 item cap.
func DefaultReplenishmentOptions() ReplenishmentOptions {
	return ReplenishmentOptions{
		WindowDays:  consumption.DefaultWindowDays,
		HorizonDays: predict.DefaultHorizonDays,
		Cap:         recommend.DefaultCap,
	}
}

func (o ReplenishmentOptions) withDefaults(d ReplenishmentOptions) ReplenishmentOptions {
	if o.WindowDays <= 0 {
		o.WindowDays = d.WindowDays
	}
	if o.HorizonDays <= 0 {
		o.HorizonDays = d.HorizonDays
	}
	if o.Cap <= 0 {
		o.Cap = d.Cap
	}
	return o
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the clock used for windows and expiry dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMetrics records match and recommendation counters.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = recorder
	}
}

// WithDefaults overrides the options used for zero ReplenishmentOptions fields.
func WithDefaults(opts ReplenishmentOptions) Option {
	return func(e *Engine) {
		e.defaults = opts.withDefaults(DefaultReplenishmentOptions())
	}
}

// New creates an engine. resolver may be nil, in which case no equivalents are used.
func New(inventory InventoryProvider, events ConsumptionProvider, resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		inventory:   inventory,
		consumption: events,
		resolver:    resolver,
		now:         time.Now,
		defaults:    DefaultReplenishmentOptions(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var matchResolver availability.Resolver
	if resolver != nil {
		matchResolver = resolver
	}
	e.matcher = availability.NewMatcher(matchResolver, e.metrics)
	e.analyzer = consumption.NewAnalyzerWithClock(e.now)
	e.predictor = predict.NewPredictorWithClock(e.now)
	e.ranker = recommend.NewRanker(e.metrics)

	return e
}

// CheckAvailability classifies each raw ingredient name against the household's stock.
// When the equivalency store cannot be reached the error wraps common.ErrStoreUnavailable;
// callers may then use CheckAvailabilityExactOnly.
func (e *Engine) CheckAvailability(ctx context.Context, ingredients []string, householdID string) ([]model.MatchResult, error) {
	products, err := e.inventoryProducts(ctx, householdID)
	if err != nil {
		return nil, err
	}

	results, err := e.matcher.Match(ctx, householdID, normalize.NormalizeAll(ingredients), products)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	slog.Debug("Checked availability", "household_id", householdID, "ingredients", len(ingredients), "products", len(products))
	return results, nil
}

// CheckAvailabilityExactOnly runs the availability cascade without equivalency rules.
func (e *Engine) CheckAvailabilityExactOnly(ctx context.Context, ingredients []string, householdID string) ([]model.MatchResult, error) {
	products, err := e.inventoryProducts(ctx, householdID)
	if err != nil {
		return nil, err
	}
	return e.matcher.MatchWithoutEquivalents(normalize.NormalizeAll(ingredients), products), nil
}

// inventoryProducts returns each distinct product of the usable inventory once.
func (e *Engine) inventoryProducts(ctx context.Context, householdID string) ([]model.Product, error) {
	items, err := e.inventory.CurrentInventory(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("%w: inventory for household %s: %w", common.ErrSnapshotUnavailable, householdID, err)
	}

	seen := make(map[string]bool, len(items))
	products := make([]model.Product, 0, len(items))
	for _, item := range items {
		if !item.Valid() || item.IsConsumed {
			continue
		}
		id := item.ProductKey()
		if seen[id] {
			continue
		}
		seen[id] = true

		p := *item.Product
		p.ID = id
		products = append(products, p)
	}

	return products, nil
}

// PredictReplenishment ranks restock suggestions from consumption velocity and
// upcoming expirations. Identical snapshots and clock produce identical output.
func (e *Engine) PredictReplenishment(ctx context.Context, householdID string, opts ReplenishmentOptions) ([]model.Recommendation, error) {
	opts = opts.withDefaults(e.defaults)

	since := e.now().Add(-time.Duration(opts.WindowDays) * 24 * time.Hour)
	events, err := e.consumption.ConsumptionEvents(ctx, householdID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: consumption events for household %s: %w", common.ErrSnapshotUnavailable, householdID, err)
	}

	items, err := e.inventory.CurrentInventory(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("%w: inventory for household %s: %w", common.ErrSnapshotUnavailable, householdID, err)
	}

	rates := e.analyzer.Analyze(events, opts.WindowDays)
	stockouts := e.predictor.PredictStockouts(rates, items)
	expirations := e.predictor.PredictExpirations(items, opts.HorizonDays)
	ranked := e.ranker.Rank(stockouts, expirations, opts.Cap)

	slog.Debug("Predicted replenishment",
		"household_id", householdID,
		"events", len(events),
		"items", len(items),
		"stockouts", len(stockouts),
		"expirations", len(expirations),
		"recommendations", len(ranked))

	return ranked, nil
}

// ResolveEquivalents lists what may substitute for a raw food name.
func (e *Engine) ResolveEquivalents(ctx context.Context, foodName string, householdID string) ([]equivalency.Candidate, error) {
	if e.resolver == nil {
		return []equivalency.Candidate{}, nil
	}

	candidates, err := e.resolver.Resolve(ctx, normalize.Normalize(foodName), householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve equivalents for %q: %w", foodName, err)
	}
	return candidates, nil
}
