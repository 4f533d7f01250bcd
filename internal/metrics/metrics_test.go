package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.CacheHit()
	r.CacheHit()
	r.CacheMiss()
	r.Candidates("household", 2)
	r.Candidates("system", 0)
	r.Match("exact")
	r.Recommendation("consumption_pattern")
	r.MalformedRatio()
	r.StoreFailure("system")

	assert.InDelta(t, 2, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.resolutions.WithLabelValues("household")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(r.resolutions.WithLabelValues("system")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.matches.WithLabelValues("exact")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.recommendations.WithLabelValues("consumption_pattern")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.malformedRatios), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.storeFailures.WithLabelValues("system")), 0)
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.CacheHit()
		r.CacheMiss()
		r.Candidates("system", 3)
		r.Match("missing")
		r.Recommendation("expiration_replacement")
		r.MalformedRatio()
		r.StoreFailure("household")
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile("ignored"))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.CacheMiss()

	path := filepath.Join(t.TempDir(), "pantry.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pantry_equivalency_cache_lookups_total{result="miss"} 1`)
}
