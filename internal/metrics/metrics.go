// Package metrics records engine counters on a private Prometheus registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the engine's counters. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	cacheLookups    *prometheus.CounterVec
	resolutions     *prometheus.CounterVec
	storeFailures   *prometheus.CounterVec
	matches         *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	malformedRatios prometheus.Counter
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "equivalency_cache_lookups_total",
				Help:      "Equivalency cache lookups by result",
			},
			[]string{"result"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "equivalency_candidates_total",
				Help:      "Equivalent candidates produced, by winning tier",
			},
			[]string{"scope"},
		),
		storeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "equivalency_store_failures_total",
				Help:      "Failed equivalency store lookups by tier",
			},
			[]string{"scope"},
		),
		matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "ingredient_matches_total",
				Help:      "Availability results by match status",
			},
			[]string{"status"},
		),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "recommendations_total",
				Help:      "Ranked recommendations by source",
			},
			[]string{"source"},
		),
		malformedRatios: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "equivalency_malformed_ratios_total",
				Help:      "Edges whose ratio could not be parsed",
			},
		),
	}

	registry.MustRegister(
		r.cacheLookups,
		r.resolutions,
		r.storeFailures,
		r.matches,
		r.recommendations,
		r.malformedRatios,
	)

	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// CacheHit records a cache hit.
func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a cache miss.
func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("miss").Inc()
}

// Candidates records n candidates won by the given tier.
func (r *Recorder) Candidates(scope string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.resolutions.WithLabelValues(scope).Add(float64(n))
}

// StoreFailure records a failed store lookup.
func (r *Recorder) StoreFailure(scope string) {
	if r == nil {
		return
	}
	r.storeFailures.WithLabelValues(scope).Inc()
}

// MalformedRatio records an edge that fell back to 1:1.
func (r *Recorder) MalformedRatio() {
	if r == nil {
		return
	}
	r.malformedRatios.Inc()
}

// Match records one availability result.
func (r *Recorder) Match(status string) {
	if r == nil {
		return
	}
	r.matches.WithLabelValues(status).Inc()
}

// Recommendation records one ranked recommendation.
func (r *Recorder) Recommendation(source string) {
	if r == nil {
		return
	}
	r.recommendations.WithLabelValues(source).Inc()
}

// WriteTextfile writes every metric in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
