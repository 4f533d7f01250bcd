// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/engine"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/pantry/pantry.db"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the typed view of the pantry configuration.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	Cache    CacheConfig
	Metrics  MetricsConfig
	Engine   engine.ReplenishmentOptions
	Sheets   SheetsOptions
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// CacheConfig selects the equivalency cache backend.
type CacheConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	RedisDB       int
	TTL           time.Duration
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string
}

// SheetsOptions holds the non-secret sheet settings. Credentials are read by LoadSheetsConfig.
type SheetsOptions struct {
	SpreadsheetName string
	SheetName       string
	TimeZone        string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	defaults := engine.DefaultReplenishmentOptions()

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("engine.window_days", defaults.WindowDays)
	v.SetDefault("engine.horizon_days", defaults.HorizonDays)
	v.SetDefault("engine.cap", defaults.Cap)
	v.SetDefault("sheets.spreadsheet_name", "Pantry Shopping List")
	v.SetDefault("sheets.sheet_name", "Shopping List")
	v.SetDefault("sheets.time_zone", "America/New_York")
}

// Load reads the configuration from v, applying defaults for anything unset.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(v.GetString("cache.backend")),
			TTL:           v.GetDuration("cache.ttl"),
			RedisAddr:     v.GetString("cache.redis.addr"),
			RedisPassword: v.GetString("cache.redis.password"),
			RedisDB:       v.GetInt("cache.redis.db"),
			RedisPrefix:   v.GetString("cache.redis.prefix"),
		},
		Metrics: MetricsConfig{
			Textfile: ExpandPath(v.GetString("metrics.textfile")),
		},
		Engine: engine.ReplenishmentOptions{
			WindowDays:  v.GetInt("engine.window_days"),
			HorizonDays: v.GetInt("engine.horizon_days"),
			Cap:         v.GetInt("engine.cap"),
		},
		Sheets: SheetsOptions{
			SpreadsheetName: v.GetString("sheets.spreadsheet_name"),
			SheetName:       v.GetString("sheets.sheet_name"),
			TimeZone:        v.GetString("sheets.time_zone"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("%w: cache.redis.addr is required for the redis backend", common.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache backend %q", common.ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache.ttl must be positive, got %s", common.ErrInvalidConfig, c.Cache.TTL)
	}

	if c.Engine.WindowDays < 0 || c.Engine.HorizonDays < 0 || c.Engine.Cap < 0 {
		return fmt.Errorf("%w: engine window, horizon and cap must not be negative", common.ErrInvalidConfig)
	}
	if c.Sheets.TimeZone != "" {
		if _, err := time.LoadLocation(c.Sheets.TimeZone); err != nil {
			return fmt.Errorf("%w: invalid sheets.time_zone %q: %w", common.ErrInvalidConfig, c.Sheets.TimeZone, err)
		}
	}
	return nil
}
