package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRatio(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple", input: "2:1", want: "2:1"},
		{name: "decimal parts", input: "1.5:1", want: "1.5:1"},
		{name: "surrounding whitespace", input: " 3 : 4 ", want: "3:4"},
		{name: "empty string", input: "", wantErr: true},
		{name: "missing separator", input: "2", wantErr: true},
		{name: "non numeric", input: "a:b", wantErr: true},
		{name: "zero denominator", input: "1:0", wantErr: true},
		{name: "negative numerator", input: "-1:2", wantErr: true},
		{name: "extra separator", input: "1:2:3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRatio(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedRatio)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestRatio_Invert(t *testing.T) {
	r := MustParseRatio("2:1")

	inv := r.Invert()

	assert.Equal(t, "1:2", inv.String())
	assert.True(t, inv.Invert().Equal(r))
	assert.Equal(t, "0.5", inv.Factor().String())
}

func TestRatio_TextRoundTrip(t *testing.T) {
	var r Ratio
	require.NoError(t, r.UnmarshalText([]byte("3:2")))

	text, err := r.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "3:2", string(text))

	assert.Error(t, r.UnmarshalText([]byte("oops")))
}

func TestNewEquivalencyEdge(t *testing.T) {
	t.Run("parses ratio once", func(t *testing.T) {
		edge := NewEquivalencyEdge("butter", "margarine", 0.8, "1:1", true, ScopeSystem, "")

		assert.False(t, edge.RatioMalformed)
		assert.True(t, edge.Ratio.Equal(OneToOne))
		assert.True(t, edge.Active)
	})

	t.Run("malformed ratio falls back to one to one", func(t *testing.T) {
		edge := NewEquivalencyEdge("butter", "margarine", 0.8, "lots", false, ScopeHousehold, "h1")

		assert.True(t, edge.RatioMalformed)
		assert.Equal(t, "1:1", edge.Ratio.String())
	})
}

func TestEquivalencyEdge_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		edge    EquivalencyEdge
		wantErr bool
	}{
		{
			name: "valid system edge",
			edge: NewEquivalencyEdge("salt", "sea salt", 0.95, "1:1", false, ScopeSystem, ""),
		},
		{
			name: "valid household edge",
			edge: NewEquivalencyEdge("milk", "oat milk", 0.7, "1:1", true, ScopeHousehold, "h1"),
		},
		{
			name:    "self reference",
			edge:    NewEquivalencyEdge("salt", "salt", 0.95, "1:1", false, ScopeSystem, ""),
			wantErr: true,
			errMsg:  "cannot reference itself",
		},
		{
			name:    "zero confidence",
			edge:    NewEquivalencyEdge("salt", "sea salt", 0, "1:1", false, ScopeSystem, ""),
			wantErr: true,
			errMsg:  "confidence must be in (0, 1]",
		},
		{
			name:    "confidence above one",
			edge:    NewEquivalencyEdge("salt", "sea salt", 1.2, "1:1", false, ScopeSystem, ""),
			wantErr: true,
			errMsg:  "confidence must be in (0, 1]",
		},
		{
			name:    "household edge without household",
			edge:    NewEquivalencyEdge("salt", "sea salt", 0.9, "1:1", false, ScopeHousehold, ""),
			wantErr: true,
			errMsg:  "require a household id",
		},
		{
			name:    "system edge with household",
			edge:    NewEquivalencyEdge("salt", "sea salt", 0.9, "1:1", false, ScopeSystem, "h1"),
			wantErr: true,
			errMsg:  "cannot belong to a household",
		},
		{
			name:    "missing subject",
			edge:    NewEquivalencyEdge("", "sea salt", 0.9, "1:1", false, ScopeSystem, ""),
			wantErr: true,
			errMsg:  "subject is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.edge.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}
