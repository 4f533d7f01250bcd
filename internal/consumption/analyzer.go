// Package consumption turns a consumption audit log into per-product velocities.
package consumption

import (
	"log/slog"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// DefaultWindowDays is the look-back used when callers do not choose one.
const DefaultWindowDays = 30

// Analyzer computes weekly consumption rates over a rolling window.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an analyzer using the wall clock.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewAnalyzerWithClock creates an analyzer with an injected clock.
func NewAnalyzerWithClock(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze groups events inside the window by product. Products without events in the
// window are absent from the result, which means "no signal", not zero consumption.
func (a *Analyzer) Analyze(events []model.ConsumptionEvent, windowDays int) map[string]model.Velocity {
	result := make(map[string]model.Velocity)
	if windowDays <= 0 {
		return result
	}

	cutoff := a.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	skipped := 0
	for _, e := range events {
		if !e.Valid() {
			skipped++
			continue
		}
		if e.OccurredAt.Before(cutoff) {
			continue
		}

		v := result[e.ProductID]
		v.Total += e.QuantityDelta
		v.EventsCount++
		result[e.ProductID] = v
	}

	for id, v := range result {
		v.WeeklyRate = v.Total / float64(windowDays) * 7
		result[id] = v
	}

	if skipped > 0 {
		slog.Warn("Skipped malformed consumption events", "count", skipped)
	}
	slog.Debug("Analyzed consumption", "events", len(events), "products", len(result), "window_days", windowDays)

	return result
}
