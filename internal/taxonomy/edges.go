package taxonomy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/normalize"
	"gopkg.in/yaml.v3"
)

//go:embed default_equivalents.yaml
var defaultEquivalents []byte

// EdgeDef is one system edge as written in a defaults file.
type EdgeDef struct {
	Active        *bool   `yaml:"active,omitempty"`
	Subject       string  `yaml:"subject"`
	Equivalent    string  `yaml:"equivalent"`
	Ratio         string  `yaml:"ratio"`
	Confidence    float64 `yaml:"confidence"`
	Bidirectional bool    `yaml:"bidirectional"`
}

type edgeFile struct {
	Edges []EdgeDef `yaml:"edges"`
}

// DecodeSystemEdges reads a defaults file into system edges. Names are normalized.
// A missing ratio means 1:1; an unparseable one is kept and flagged malformed.
func DecodeSystemEdges(r io.Reader) ([]model.EquivalencyEdge, error) {
	var file edgeFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode equivalents: %w", err)
	}

	edges := make([]model.EquivalencyEdge, 0, len(file.Edges))
	for i, def := range file.Edges {
		ratio := def.Ratio
		if ratio == "" {
			ratio = model.OneToOne.String()
		}

		edge := model.NewEquivalencyEdge(
			normalize.Normalize(def.Subject),
			normalize.Normalize(def.Equivalent),
			def.Confidence,
			ratio,
			def.Bidirectional,
			model.ScopeSystem,
			"",
		)
		if def.Active != nil {
			edge.Active = *def.Active
		}
		if err := edge.Validate(); err != nil {
			return nil, fmt.Errorf("edge %d (%s -> %s): %w", i+1, def.Subject, def.Equivalent, err)
		}
		edges = append(edges, edge)
	}

	return edges, nil
}

// DefaultSystemEdges returns the embedded system defaults.
func DefaultSystemEdges() ([]model.EquivalencyEdge, error) {
	return DecodeSystemEdges(bytes.NewReader(defaultEquivalents))
}
