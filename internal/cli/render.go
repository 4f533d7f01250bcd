package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/equivalency"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// RenderTable lays rows out in padded columns under a styled header.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(joinCells(headers, widths)))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(joinCells(row, widths))
		b.WriteString("\n")
	}
	return b.String()
}

func joinCells(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(widths)-1 {
			parts[i] = cell
			continue
		}
		parts[i] = TableCellStyle.Render(cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
	}
	return strings.TrimRight(strings.Join(parts, ""), " ")
}

func statusLabel(status model.MatchStatus) string {
	switch status {
	case model.MatchExact:
		return SuccessStyle.Render(SuccessIcon + " in stock")
	case model.MatchEquivalent:
		return InfoStyle.Render(LinkIcon + " substitute")
	case model.MatchPartial:
		return WarningStyle.Render(WarningIcon + " maybe")
	default:
		return ErrorStyle.Render(ErrorIcon + " missing")
	}
}

// RenderMatches shows one line per ingredient. names maps product IDs to display names.
func RenderMatches(results []model.MatchResult, names map[string]string) string {
	if len(results) == 0 {
		return SubtleStyle.Render("No ingredients given.") + "\n"
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		product := "-"
		if r.MatchedProductID != nil {
			product = *r.MatchedProductID
			if name, ok := names[product]; ok && name != "" {
				product = name
			}
		}
		ratio := ""
		if r.SubstitutionRatio != nil {
			ratio = r.SubstitutionRatio.String()
		}
		rows = append(rows, []string{
			string(r.IngredientName),
			statusLabel(r.Status),
			product,
			ratio,
			fmt.Sprintf("%.0f%%", r.Confidence*100),
		})
	}

	return RenderTable([]string{"Ingredient", "Status", "Product", "Ratio", "Confidence"}, rows)
}

// RenderRecommendations shows a ranked shopping list.
func RenderRecommendations(recs []model.Recommendation) string {
	if len(recs) == 0 {
		return SuccessStyle.Render(SuccessIcon+" Nothing to buy right now.") + "\n"
	}

	rows := make([][]string, 0, len(recs))
	for i, rec := range recs {
		name := rec.ProductName
		if name == "" {
			name = rec.ProductID
		}
		quantity := fmt.Sprintf("%g", rec.PredictedQuantity)
		if rec.Unit != "" {
			quantity += " " + rec.Unit
		}
		icon := CartIcon
		if rec.Source == model.SourceExpirationReplacement {
			icon = ClockIcon
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d.", i+1),
			priorityLabel(rec.Priority),
			icon + " " + name,
			quantity,
			rec.Reason,
			fmt.Sprintf("%.0f%%", rec.Confidence),
		})
	}

	return RenderTable([]string{"#", "Priority", "Product", "Buy", "Why", "Confidence"}, rows)
}

func priorityLabel(priority int) string {
	label := strings.Repeat("●", priority) + strings.Repeat("○", model.MaxPriority-priority)
	switch {
	case priority >= 5:
		return ErrorStyle.Render(label)
	case priority >= 4:
		return WarningStyle.Render(label)
	default:
		return SubtleStyle.Render(label)
	}
}

// RenderCandidates lists resolved equivalents in resolution order.
func RenderCandidates(name model.FoodName, candidates []equivalency.Candidate) string {
	if len(candidates) == 0 {
		return SubtleStyle.Render(fmt.Sprintf("No equivalents for %q.", name)) + "\n"
	}

	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		ratio := c.Ratio.String()
		if c.RatioMalformed {
			ratio += " " + WarningStyle.Render("(malformed, assumed)")
		}
		direction := "→"
		if c.Bidirectional {
			direction = "↔"
		}
		rows = append(rows, []string{
			string(c.EquivalentName),
			direction,
			ratio,
			fmt.Sprintf("%.2f", c.Confidence),
			string(c.Scope),
		})
	}

	return RenderTable([]string{"Equivalent", "Dir", "Ratio", "Confidence", "Scope"}, rows)
}

// RenderEdges lists stored equivalency edges.
func RenderEdges(edges []model.EquivalencyEdge) string {
	if len(edges) == 0 {
		return SubtleStyle.Render("No equivalency edges.") + "\n"
	}

	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		arrow := "→"
		if e.Bidirectional {
			arrow = "↔"
		}
		owner := string(e.Scope)
		if e.HouseholdID != "" {
			owner += ":" + e.HouseholdID
		}
		state := "active"
		if !e.Active {
			state = SubtleStyle.Render("inactive")
		}
		ratio := e.Ratio.String()
		if e.RatioMalformed {
			ratio = WarningStyle.Render("malformed")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.ID),
			fmt.Sprintf("%s %s %s", e.Subject, arrow, e.Equivalent),
			ratio,
			fmt.Sprintf("%.2f", e.Confidence),
			owner,
			state,
		})
	}

	return RenderTable([]string{"ID", "Edge", "Ratio", "Confidence", "Scope", "State"}, rows)
}

// RenderInventory lists stock with days until expiry relative to now.
func RenderInventory(items []model.InventoryItem, now time.Time) string {
	if len(items) == 0 {
		return SubtleStyle.Render("The pantry is empty.") + "\n"
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		name := item.ProductID
		if item.Product != nil && item.Product.Name != "" {
			name = item.Product.Name
		}
		quantity := fmt.Sprintf("%g", item.Quantity)
		if item.Unit != "" {
			quantity += " " + item.Unit
		}
		rows = append(rows, []string{
			name,
			quantity,
			item.PurchaseDate.Format("2006-01-02"),
			expiryLabel(item.ExpirationDate, now),
		})
	}

	return RenderTable([]string{"Product", "Quantity", "Bought", "Expires"}, rows)
}

func expiryLabel(expires *time.Time, now time.Time) string {
	if expires == nil {
		return SubtleStyle.Render("-")
	}

	y1, m1, d1 := now.Date()
	y2, m2, d2 := expires.In(now.Location()).Date()
	today := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	day := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(today).Hours() / 24)

	label := expires.Format("2006-01-02")
	switch {
	case days < 0:
		return ErrorStyle.Render(label + " (expired)")
	case days == 0:
		return ErrorStyle.Render(label + " (today)")
	case days <= 3:
		return WarningStyle.Render(fmt.Sprintf("%s (%dd)", label, days))
	default:
		return fmt.Sprintf("%s (%dd)", label, days)
	}
}
