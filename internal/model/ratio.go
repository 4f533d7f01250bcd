package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedRatio is returned when a substitution ratio cannot be parsed.
var ErrMalformedRatio = errors.New("malformed substitution ratio")

// Ratio is a substitution ratio "a:b": a units of the subject replace b units of the equivalent.
type Ratio struct {
	Numerator   decimal.Decimal
	Denominator decimal.Decimal
}

// OneToOne is the neutral substitution ratio.
var OneToOne = Ratio{Numerator: decimal.NewFromInt(1), Denominator: decimal.NewFromInt(1)}

// ParseRatio parses an "a:b" string. Both parts must be positive decimals.
func ParseRatio(s string) (Ratio, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Ratio{}, fmt.Errorf("%w: %q", ErrMalformedRatio, s)
	}

	num, err := decimal.NewFromString(strings.TrimSpace(left))
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: %q: %v", ErrMalformedRatio, s, err)
	}
	den, err := decimal.NewFromString(strings.TrimSpace(right))
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: %q: %v", ErrMalformedRatio, s, err)
	}

	if !num.IsPositive() || !den.IsPositive() {
		return Ratio{}, fmt.Errorf("%w: %q: parts must be positive", ErrMalformedRatio, s)
	}

	return Ratio{Numerator: num, Denominator: den}, nil
}

// MustParseRatio is like ParseRatio but panics on error. Intended for literals.
func MustParseRatio(s string) Ratio {
	r, err := ParseRatio(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Invert swaps numerator and denominator.
func (r Ratio) Invert() Ratio {
	return Ratio{Numerator: r.Denominator, Denominator: r.Numerator}
}

// IsZero reports whether the ratio was never set.
func (r Ratio) IsZero() bool {
	return r.Numerator.IsZero() && r.Denominator.IsZero()
}

// Factor returns numerator/denominator.
func (r Ratio) Factor() decimal.Decimal {
	if r.Denominator.IsZero() {
		return decimal.Zero
	}
	return r.Numerator.Div(r.Denominator)
}

// Equal compares ratios by their parts.
func (r Ratio) Equal(other Ratio) bool {
	return r.Numerator.Equal(other.Numerator) && r.Denominator.Equal(other.Denominator)
}

// String renders the ratio in "a:b" form.
func (r Ratio) String() string {
	return r.Numerator.String() + ":" + r.Denominator.String()
}

// MarshalText implements encoding.TextMarshaler.
func (r Ratio) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ratio) UnmarshalText(text []byte) error {
	parsed, err := ParseRatio(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
