// Package predict projects stockouts from consumption velocity and finds stock
// that is about to expire.
package predict

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// Stockout tuning.
const (
	// StockoutHorizonDays is the longest runway that still produces a candidate.
	StockoutHorizonDays = 14.0
	// FullConfidenceEvents is how many observations earn 100 confidence.
	FullConfidenceEvents = 5
	// SupplyWeeks is how many weeks of supply a stockout candidate suggests.
	SupplyWeeks = 2
)

// Expiration candidate constants.
const (
	DefaultHorizonDays   = 7
	ExpirationConfidence = 90.0
	ExpirationPriority   = 3
	ExpirationQuantity   = 1.0
)

// Predictor turns snapshots into restock candidates. It performs no I/O.
type Predictor struct {
	now func() time.Time
}

// NewPredictor creates a predictor using the wall clock.
func NewPredictor() *Predictor {
	return &Predictor{now: time.Now}
}

// NewPredictorWithClock creates a predictor with an injected clock.
func NewPredictorWithClock(now func() time.Time) *Predictor {
	return &Predictor{now: now}
}

type stock struct {
	name     string
	unit     string
	quantity float64
}

// stockByProduct sums valid, unconsumed items per product.
func stockByProduct(inventory []model.InventoryItem) map[string]stock {
	out := make(map[string]stock)
	for _, item := range inventory {
		if !item.Valid() {
			slog.Warn("Skipping malformed inventory item", "item_id", item.ID, "product_id", item.ProductID)
			continue
		}
		if item.IsConsumed {
			continue
		}

		id := item.ProductKey()
		s := out[id]
		if s.name == "" {
			s.name = item.Product.Name
		}
		if s.unit == "" {
			s.unit = item.Unit
		}
		s.quantity += item.Quantity
		out[id] = s
	}
	return out
}

type runway struct {
	rec  model.Recommendation
	days float64
}

// PredictStockouts emits a candidate for every product whose stock runs out within
// StockoutHorizonDays at its weekly rate. A product with a rate and no stock has a
// runway of zero.
func (p *Predictor) PredictStockouts(rates map[string]model.Velocity, inventory []model.InventoryItem) []model.Recommendation {
	stocks := stockByProduct(inventory)

	var runways []runway
	for productID, v := range rates {
		if productID == "" || !(v.WeeklyRate > 0) || math.IsInf(v.WeeklyRate, 0) {
			continue
		}

		s := stocks[productID]
		days := s.quantity / (v.WeeklyRate / 7)
		if days > StockoutHorizonDays {
			continue
		}

		runways = append(runways, runway{
			days: days,
			rec: model.Recommendation{
				ProductID:         productID,
				ProductName:       s.name,
				PredictedQuantity: math.Ceil(v.WeeklyRate * SupplyWeeks),
				Unit:              s.unit,
				Priority:          stockoutPriority(days),
				Reason:            stockoutReason(days, v.WeeklyRate),
				Confidence:        stockoutConfidence(v.EventsCount),
				Source:            model.SourceConsumptionPattern,
			},
		})
	}

	sort.Slice(runways, func(i, j int) bool {
		if runways[i].days != runways[j].days {
			return runways[i].days < runways[j].days
		}
		return runways[i].rec.ProductID < runways[j].rec.ProductID
	})

	out := make([]model.Recommendation, 0, len(runways))
	for _, r := range runways {
		out = append(out, r.rec)
	}

	slog.Debug("Predicted stockouts", "rated_products", len(rates), "candidates", len(out))
	return out
}

func stockoutPriority(days float64) int {
	switch {
	case days <= 3:
		return 5
	case days <= 7:
		return 4
	default:
		return 3
	}
}

func stockoutConfidence(events int) float64 {
	return math.Min(float64(events)*100/FullConfidenceEvents, 100)
}

func stockoutReason(days, weeklyRate float64) string {
	if days == 0 {
		return fmt.Sprintf("Out of stock, usually uses %.1f per week", weeklyRate)
	}
	return fmt.Sprintf("Runs out in about %.1f days at %.1f per week", days, weeklyRate)
}

type expiring struct {
	rec  model.Recommendation
	days int
}

// PredictExpirations emits one candidate per product with an unconsumed item expiring
// within horizonDays calendar days, not counting today. The earliest item wins.
func (p *Predictor) PredictExpirations(inventory []model.InventoryItem, horizonDays int) []model.Recommendation {
	now := p.now()
	today := civilDate(now, now.Location())

	byProduct := make(map[string]expiring)
	for _, item := range inventory {
		if !item.Valid() || item.IsConsumed || item.ExpirationDate == nil {
			continue
		}

		days := int(civilDate(*item.ExpirationDate, now.Location()).Sub(today).Hours() / 24)
		if days <= 0 || days > horizonDays {
			continue
		}

		id := item.ProductKey()
		if current, seen := byProduct[id]; seen && current.days <= days {
			continue
		}

		byProduct[id] = expiring{
			days: days,
			rec: model.Recommendation{
				ProductID:         id,
				ProductName:       item.Product.Name,
				PredictedQuantity: ExpirationQuantity,
				Unit:              item.Unit,
				Priority:          ExpirationPriority,
				Reason:            expirationReason(days),
				Confidence:        ExpirationConfidence,
				Source:            model.SourceExpirationReplacement,
			},
		}
	}

	candidates := make([]expiring, 0, len(byProduct))
	for _, e := range byProduct {
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].days != candidates[j].days {
			return candidates[i].days < candidates[j].days
		}
		return candidates[i].rec.ProductID < candidates[j].rec.ProductID
	})

	out := make([]model.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.rec)
	}

	slog.Debug("Predicted expirations", "items", len(inventory), "candidates", len(out), "horizon_days", horizonDays)
	return out
}

func expirationReason(days int) string {
	if days == 1 {
		return "Expires tomorrow"
	}
	return fmt.Sprintf("Expires in %d days", days)
}

// civilDate returns midnight UTC of t's calendar date in loc, so that subtracting two
// results counts whole days regardless of DST.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
