package sheets

import (
	"fmt"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/shopspring/decimal"
)

// ShoppingListRow is one line of the exported shopping list.
type ShoppingListRow struct {
	Quantity   decimal.Decimal
	Product    string
	Unit       string
	Reason     string
	Source     string
	Confidence string
	Priority   int
}

// shoppingListHeader labels the columns of a ShoppingListRow.
var shoppingListHeader = []any{"Priority", "Product", "Quantity", "Unit", "Reason", "Source", "Confidence"}

// NewShoppingListRow converts a recommendation for display. Quantities are rounded
// to two places.
func NewShoppingListRow(rec model.Recommendation) ShoppingListRow {
	name := rec.ProductName
	if name == "" {
		name = rec.ProductID
	}
	return ShoppingListRow{
		Priority:   rec.Priority,
		Product:    name,
		Quantity:   decimal.NewFromFloat(rec.PredictedQuantity).Round(2),
		Unit:       rec.Unit,
		Reason:     rec.Reason,
		Source:     sourceLabel(rec.Source),
		Confidence: fmt.Sprintf("%.0f%%", rec.Confidence),
	}
}

func (r ShoppingListRow) values() []any {
	quantity, _ := r.Quantity.Float64()
	return []any{r.Priority, r.Product, quantity, r.Unit, r.Reason, r.Source, r.Confidence}
}

func sourceLabel(source model.RecommendationSource) string {
	switch source {
	case model.SourceConsumptionPattern:
		return "Running low"
	case model.SourceExpirationReplacement:
		return "Expiring soon"
	default:
		return string(source)
	}
}
