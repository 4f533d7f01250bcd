package equivalency

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/metrics"
	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// Candidate is one name that may substitute for the resolved name.
type Candidate struct {
	Ratio          model.Ratio    `json:"ratio"`
	EquivalentName model.FoodName `json:"equivalent_name"`
	Scope          model.Scope    `json:"scope"`
	Confidence     float64        `json:"confidence"`
	RatioMalformed bool           `json:"ratio_malformed"`
	Bidirectional  bool           `json:"bidirectional"`
}

// tier is one link in the precedence chain. Tiers are consulted in order and the
// first tier to claim an equivalent name owns it.
type tier struct {
	edges func(entry CacheEntry) []model.EquivalencyEdge
	scope model.Scope
}

var defaultTiers = []tier{
	{scope: model.ScopeHousehold, edges: func(e CacheEntry) []model.EquivalencyEdge { return e.Household }},
	{scope: model.ScopeSystem, edges: func(e CacheEntry) []model.EquivalencyEdge { return e.System }},
}

// Resolver answers "what can stand in for this name" for a household.
type Resolver struct {
	store   Store
	cache   Cache
	metrics *metrics.Recorder
	tiers   []tier
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache puts a cache in front of the store. The caller owns the cache.
func WithCache(cache Cache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithMetrics records cache and tier counters.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a resolver over store.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store: store,
		tiers: defaultTiers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns every equivalent of name, ordered by confidence descending and
// then by name. A household edge shadows a system edge for the same pair.
// Store failures are reported as common.ErrStoreUnavailable, never as "no edges".
func (r *Resolver) Resolve(ctx context.Context, name model.FoodName, householdID string) ([]Candidate, error) {
	if name == "" {
		return []Candidate{}, nil
	}

	entry, err := r.lookup(ctx, CacheKey{HouseholdID: householdID, Name: name})
	if err != nil {
		return nil, err
	}

	claimed := make(map[model.FoodName]bool)
	result := []Candidate{}

	for _, t := range r.tiers {
		found := r.tierCandidates(name, householdID, t, entry)

		won := 0
		for _, c := range found {
			if claimed[c.EquivalentName] {
				slog.Debug("Edge shadowed by higher tier",
					"name", name,
					"equivalent", c.EquivalentName,
					"scope", t.scope)
				continue
			}
			claimed[c.EquivalentName] = true
			result = append(result, c)
			won++
		}
		r.metrics.Candidates(string(t.scope), won)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Confidence != result[j].Confidence {
			return result[i].Confidence > result[j].Confidence
		}
		return result[i].EquivalentName < result[j].EquivalentName
	})

	return result, nil
}

// tierCandidates turns one tier's edges into candidates for name. Within a tier,
// duplicate claims on the same equivalent keep the highest confidence.
func (r *Resolver) tierCandidates(name model.FoodName, householdID string, t tier, entry CacheEntry) []Candidate {
	best := make(map[model.FoodName]int)
	var out []Candidate

	for _, edge := range t.edges(entry) {
		if !edge.Active || edge.IsSelfReference() {
			continue
		}
		if edge.Scope != t.scope {
			continue
		}
		if t.scope == model.ScopeHousehold && edge.HouseholdID != householdID {
			continue
		}
		if !(edge.Confidence > 0 && edge.Confidence <= 1) {
			slog.Warn("Skipping equivalency edge with confidence outside (0, 1]",
				"edge_id", edge.ID,
				"subject", edge.Subject,
				"equivalent", edge.Equivalent,
				"confidence", edge.Confidence,
				"scope", edge.Scope)
			continue
		}

		c, ok := candidateFor(name, edge)
		if !ok {
			continue
		}

		if edge.RatioMalformed {
			slog.Warn("Equivalency edge has malformed ratio, using 1:1",
				"edge_id", edge.ID,
				"subject", edge.Subject,
				"equivalent", edge.Equivalent,
				"scope", edge.Scope)
			r.metrics.MalformedRatio()
		}

		if i, seen := best[c.EquivalentName]; seen {
			if c.Confidence > out[i].Confidence {
				out[i] = c
			}
			continue
		}
		best[c.EquivalentName] = len(out)
		out = append(out, c)
	}

	return out
}

// candidateFor reads edge from name's point of view. Bidirectional edges match in
// reverse with roles swapped and the ratio inverted.
func candidateFor(name model.FoodName, edge model.EquivalencyEdge) (Candidate, bool) {
	c := Candidate{
		Confidence:     edge.Confidence,
		Ratio:          edge.Ratio,
		RatioMalformed: edge.RatioMalformed,
		Bidirectional:  edge.Bidirectional,
		Scope:          edge.Scope,
	}

	switch {
	case edge.Subject == name:
		c.EquivalentName = edge.Equivalent
	case edge.Bidirectional && edge.Equivalent == name:
		c.EquivalentName = edge.Subject
		c.Ratio = edge.Ratio.Invert()
	default:
		return Candidate{}, false
	}

	if edge.RatioMalformed || c.Ratio.IsZero() {
		c.Ratio = model.OneToOne
		c.Confidence *= model.MalformedRatioPenalty
	}

	return c, true
}

// lookup returns both tiers for key, from the cache when possible.
func (r *Resolver) lookup(ctx context.Context, key CacheKey) (CacheEntry, error) {
	if r.cache != nil {
		entry, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("Equivalency cache read failed, falling back to store",
				"key", key.String(),
				"error", err)
		case ok:
			r.metrics.CacheHit()
			return entry, nil
		}
		r.metrics.CacheMiss()
	}

	entry, err := r.fetch(ctx, key)
	if err != nil {
		return CacheEntry{}, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, entry); err != nil {
			slog.Warn("Equivalency cache write failed",
				"key", key.String(),
				"error", err)
		}
	}

	return entry, nil
}

func (r *Resolver) fetch(ctx context.Context, key CacheKey) (CacheEntry, error) {
	var entry CacheEntry

	if key.HouseholdID != "" {
		household, err := r.store.HouseholdEdges(ctx, key.HouseholdID, key.Name)
		if err != nil {
			r.metrics.StoreFailure(string(model.ScopeHousehold))
			return CacheEntry{}, common.NewStoreError(string(model.ScopeHousehold), string(key.Name), err)
		}
		entry.Household = household
	}

	system, err := r.store.SystemEdges(ctx, key.Name)
	if err != nil {
		r.metrics.StoreFailure(string(model.ScopeSystem))
		return CacheEntry{}, common.NewStoreError(string(model.ScopeSystem), string(key.Name), err)
	}
	entry.System = system

	slog.Debug("Fetched equivalency edges",
		"name", key.Name,
		"household_id", key.HouseholdID,
		"household_edges", len(entry.Household),
		"system_edges", len(entry.System))

	return entry, nil
}

// Invalidate drops the cached edges for one household and name, both tiers at once.
func (r *Resolver) Invalidate(ctx context.Context, householdID string, name model.FoodName) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Invalidate(ctx, CacheKey{HouseholdID: householdID, Name: name})
}

// InvalidateAll drops every cached entry.
func (r *Resolver) InvalidateAll(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.InvalidateAll(ctx)
}
