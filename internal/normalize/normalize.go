// Package normalize canonicalizes free-text food names into comparable keys.
package normalize

import (
	"strings"
	"unicode"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims, lower-cases, folds accents, strips everything outside [a-z0-9 ]
// and collapses whitespace. It never fails.
//
// Accent folding goes beyond plain stripping: "crème" becomes "creme", not "crme",
// so accented and unaccented spellings share one key.
//
// Plurals are not folded: "tomato" and "tomatoes" are different keys.
func Normalize(raw string) model.FoodName {
	decomposed := norm.NFD.String(strings.ToLower(raw))

	var b strings.Builder
	b.Grow(len(decomposed))

	pendingSpace := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
			continue
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}

	return model.FoodName(b.String())
}

// NormalizeAll normalizes every name, preserving order.
func NormalizeAll(raw []string) []model.FoodName {
	out := make([]model.FoodName, len(raw))
	for i, s := range raw {
		out[i] = Normalize(s)
	}
	return out
}
