package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/config"
	"github.com/Veraticus/pantry-intelligence/internal/engine"
	"github.com/Veraticus/pantry-intelligence/internal/equivalency"
	"github.com/Veraticus/pantry-intelligence/internal/metrics"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/storage"
	"github.com/spf13/viper"
)

// app bundles everything a command needs. Close must be called when the command ends.
type app struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	cache     equivalency.Cache
	resolver  *equivalency.Resolver
	metrics   *metrics.Recorder
	engine    *engine.Engine
	household string
}

// openApp loads configuration, opens and migrates the database and wires the engine.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	household := viper.GetString("household.id")
	if household == "" {
		return nil, common.NewUserError("a household is required, pass --household", common.ErrInvalidConfig)
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	cache, err := initCache(ctx, cfg.Cache)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	resolver := equivalency.NewResolver(store,
		equivalency.WithCache(cache),
		equivalency.WithMetrics(recorder))

	return &app{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		resolver: resolver,
		metrics:  recorder,
		engine: engine.New(store, store, resolver,
			engine.WithMetrics(recorder),
			engine.WithDefaults(cfg.Engine)),
		household: household,
	}, nil
}

// initStorage opens the configured database and runs migrations.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initCache builds the configured equivalency cache. An unreachable Redis degrades
// to the in-process cache.
func initCache(ctx context.Context, cfg config.CacheConfig) (equivalency.Cache, error) {
	if cfg.Backend == config.CacheRedis {
		cache, err := equivalency.NewRedisCache(ctx, equivalency.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.TTL,
		})
		if err == nil {
			return cache, nil
		}
		slog.Warn("Redis cache unavailable, using in-memory cache", "addr", cfg.RedisAddr, "error", err)
	}

	cache, err := equivalency.NewMemoryCache(cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return cache, nil
}

// Close flushes metrics and releases the cache and database.
func (a *app) Close() {
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			slog.Warn("Failed to write metrics", "path", path, "error", err)
		} else {
			slog.Debug("Wrote metrics", "path", path)
		}
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("Failed to close cache", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// invalidateEdge drops cached lookups touching either side of an edge. Changes to
// system edges affect every household, so they clear the whole cache.
func (a *app) invalidateEdge(ctx context.Context, edge *model.EquivalencyEdge) {
	var err error
	if edge.Scope == model.ScopeSystem {
		err = a.resolver.InvalidateAll(ctx)
	} else {
		err = errors.Join(
			a.resolver.Invalidate(ctx, edge.HouseholdID, edge.Subject),
			a.resolver.Invalidate(ctx, edge.HouseholdID, edge.Equivalent),
		)
	}
	if err != nil {
		slog.Warn("Failed to invalidate equivalency cache", "edge_id", edge.ID, "error", err)
	}
}

func parseEdgeID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewUserError(fmt.Sprintf("%q is not an edge ID", raw), common.ErrInvalidConfig)
	}
	return id, nil
}

func parseDateFlag(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw), err)
	}
	return t, nil
}
