//go:build integration
// +build integration

package equivalency

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("PANTRY_REDIS_ADDR")
	if addr == "" {
		t.Skip("PANTRY_REDIS_ADDR not set")
	}

	ctx := context.Background()
	cache, err := NewRedisCache(ctx, RedisConfig{
		Addr:   addr,
		Prefix: "pantry:test:" + t.Name() + ":",
		TTL:    time.Minute,
	})
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	key := CacheKey{HouseholdID: "h1", Name: "salt"}
	entry := CacheEntry{
		Household: nil,
		System:    []model.EquivalencyEdge{systemEdge("salt", "sea salt", 0.95, "2:1", false)},
	}

	require.NoError(t, cache.Set(ctx, key, entry))

	got, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.System, 1)
	assert.Equal(t, "2:1", got.System[0].Ratio.String())

	require.NoError(t, cache.InvalidateAll(ctx))
	_, found, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}
