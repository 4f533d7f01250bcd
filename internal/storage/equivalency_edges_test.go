package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/equivalency"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemEdge(subject, equivalent model.FoodName, confidence float64, ratio string, bidirectional bool) model.EquivalencyEdge {
	return model.NewEquivalencyEdge(subject, equivalent, confidence, ratio, bidirectional, model.ScopeSystem, "")
}

func householdEdge(householdID string, subject, equivalent model.FoodName, confidence float64, ratio string) *model.EquivalencyEdge {
	edge := model.NewEquivalencyEdge(subject, equivalent, confidence, ratio, false, model.ScopeHousehold, householdID)
	return &edge
}

func TestSQLiteStorage_ImportSystemEdges(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	n, err := store.ImportSystemEdges(ctx, []model.EquivalencyEdge{
		systemEdge("butter", "margarine", 0.8, "1:1", true),
		systemEdge("buttermilk", "milk", 0.6, "not a ratio", false),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	edges, err := store.SystemEdges(ctx, "margarine")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, model.FoodName("butter"), edges[0].Subject)
	assert.True(t, edges[0].Bidirectional)
	assert.False(t, edges[0].RatioMalformed)

	edges, err = store.SystemEdges(ctx, "milk")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].RatioMalformed, "malformed ratios must survive a round trip")
	assert.True(t, edges[0].Ratio.Equal(model.OneToOne))

	// Re-importing updates in place.
	_, err = store.ImportSystemEdges(ctx, []model.EquivalencyEdge{systemEdge("butter", "margarine", 0.5, "2:1", true)})
	require.NoError(t, err)
	all, err := store.ListEquivalencyEdges(ctx, service.EdgeFilter{Scope: model.ScopeSystem})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.InDelta(t, 0.5, all[0].Confidence, 1e-9)
	assert.Equal(t, "2:1", all[0].Ratio.String())

	_, err = store.ImportSystemEdges(ctx, []model.EquivalencyEdge{*householdEdge("h1", "a", "b", 0.5, "1:1")})
	assert.ErrorIs(t, err, ErrInvalidEdge)

	_, err = store.ImportSystemEdges(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptySlice)
}

func TestSQLiteStorage_HouseholdEdgeLifecycle(t *testing.T) {
	tests := []struct {
		run  func(*testing.T, *SQLiteStorage, *model.EquivalencyEdge)
		name string
	}{
		{
			name: "update own edge",
			run: func(t *testing.T, s *SQLiteStorage, edge *model.EquivalencyEdge) {
				edge.Confidence = 0.4
				edge.SetRawRatio("3:2")
				require.NoError(t, s.UpdateHouseholdEdge(context.Background(), "h1", edge))

				got, err := s.GetEdge(context.Background(), edge.ID)
				require.NoError(t, err)
				assert.InDelta(t, 0.4, got.Confidence, 1e-9)
				assert.Equal(t, "3:2", got.Ratio.String())
			},
		},
		{
			name: "update rejects another household",
			run: func(t *testing.T, s *SQLiteStorage, edge *model.EquivalencyEdge) {
				err := s.UpdateHouseholdEdge(context.Background(), "h2", edge)
				assert.ErrorIs(t, err, ErrNotOwner)
			},
		},
		{
			name: "update rejects malformed ratio",
			run: func(t *testing.T, s *SQLiteStorage, edge *model.EquivalencyEdge) {
				edge.SetRawRatio("x")
				err := s.UpdateHouseholdEdge(context.Background(), "h1", edge)
				assert.ErrorIs(t, err, ErrInvalidEdge)
			},
		},
		{
			name: "delete own edge",
			run: func(t *testing.T, s *SQLiteStorage, edge *model.EquivalencyEdge) {
				require.NoError(t, s.DeleteHouseholdEdge(context.Background(), "h1", edge.ID))
				_, err := s.GetEdge(context.Background(), edge.ID)
				assert.ErrorIs(t, err, common.ErrNotFound)
			},
		},
		{
			name: "deactivate hides edge from resolution",
			run: func(t *testing.T, s *SQLiteStorage, edge *model.EquivalencyEdge) {
				ctx := context.Background()
				require.NoError(t, s.SetEdgeActive(ctx, "h1", edge.ID, false))

				edges, err := s.HouseholdEdges(ctx, "h1", "butter")
				require.NoError(t, err)
				assert.Empty(t, edges)

				listed, err := s.ListEquivalencyEdges(ctx, service.EdgeFilter{HouseholdID: "h1", IncludeInactive: true})
				require.NoError(t, err)
				require.Len(t, listed, 1)
				assert.False(t, listed[0].Active)
			},
		},
		{
			name: "restore to default removes override",
			run: func(t *testing.T, s *SQLiteStorage, _ *model.EquivalencyEdge) {
				ctx := context.Background()
				n, err := s.RestoreToDefault(ctx, "h1", "butter", "margarine")
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)

				edges, err := s.HouseholdEdges(ctx, "h1", "butter")
				require.NoError(t, err)
				assert.Empty(t, edges)
			},
		},
		{
			name: "duplicate override rejected",
			run: func(t *testing.T, s *SQLiteStorage, _ *model.EquivalencyEdge) {
				err := s.CreateEdge(context.Background(), householdEdge("h1", "butter", "margarine", 0.9, "1:1"))
				assert.ErrorIs(t, err, common.ErrDuplicateEntry)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()

			edge := householdEdge("h1", "butter", "margarine", 0.95, "1:1")
			require.NoError(t, store.CreateEdge(context.Background(), edge))
			require.NotZero(t, edge.ID)

			tt.run(t, store, edge)
		})
	}
}

func TestSQLiteStorage_SystemEdgesAreReadOnlyForHouseholds(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.ImportSystemEdges(ctx, []model.EquivalencyEdge{systemEdge("butter", "margarine", 0.8, "1:1", false)})
	require.NoError(t, err)
	edges, err := store.SystemEdges(ctx, "butter")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	id := edges[0].ID

	assert.ErrorIs(t, store.DeleteHouseholdEdge(ctx, "h1", id), ErrSystemEdgeReadOnly)
	assert.ErrorIs(t, store.SetEdgeActive(ctx, "h1", id, false), ErrSystemEdgeReadOnly)

	// An empty household addresses the system tier.
	require.NoError(t, store.SetEdgeActive(ctx, "", id, false))
	edges, err = store.SystemEdges(ctx, "butter")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestSQLiteStorage_SetEdgeActiveNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	edge := householdEdge("h1", "butter", "margarine", 0.8, "1:1")
	require.NoError(t, store.CreateEdge(ctx, edge))

	tests := []struct {
		name      string
		household string
		wantMsg   string
		id        int64
	}{
		{name: "household edge on the system path", household: "", id: edge.ID, wantMsg: fmt.Sprintf("system edge %d", edge.ID)},
		{name: "missing system edge", household: "", id: 9999, wantMsg: "system edge 9999"},
		{name: "missing household edge", household: "h1", id: 9999, wantMsg: "household h1 edge 9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SetEdgeActive(ctx, tt.household, tt.id, false)
			require.ErrorIs(t, err, common.ErrNotFound)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestSQLiteStorage_BacksResolver(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.ImportSystemEdges(ctx, []model.EquivalencyEdge{
		systemEdge("butter", "margarine", 0.8, "1:1", false),
		systemEdge("butter", "ghee", 0.7, "4:3", false),
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateEdge(ctx, householdEdge("h1", "butter", "margarine", 0.3, "1:1")))

	resolver := equivalency.NewResolver(store)

	candidates, err := resolver.Resolve(ctx, "butter", "h1")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, model.FoodName("ghee"), candidates[0].EquivalentName)
	assert.Equal(t, model.FoodName("margarine"), candidates[1].EquivalentName)
	assert.Equal(t, model.ScopeHousehold, candidates[1].Scope, "the household override shadows the system edge")
	assert.InDelta(t, 0.3, candidates[1].Confidence, 1e-9)

	candidates, err = resolver.Resolve(ctx, "butter", "h2")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, model.FoodName("margarine"), candidates[0].EquivalentName)
	assert.Equal(t, model.ScopeSystem, candidates[0].Scope)
}
