package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidation(t *testing.T) {
	serviceAccount := func(mutate func(*Config)) Config {
		cfg := Config{
			ServiceAccountPath: "/path/to/key.json",
			SheetName:          "Shopping List",
			BatchSize:          100,
			RetryAttempts:      3,
			RetryDelay:         time.Second,
		}
		if mutate != nil {
			mutate(&cfg)
		}
		return cfg
	}

	tests := []struct {
		name   string
		errMsg string
		config Config
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:     "test-client",
				ClientSecret: "test-secret",
				RefreshToken: "test-token",
				SheetName:    "Shopping List",
				BatchSize:    100,
			},
		},
		{
			name:   "valid service account config",
			config: serviceAccount(nil),
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:     "test-client",
				RefreshToken: "test-token",
				SheetName:    "Shopping List",
				BatchSize:    100,
			},
			errMsg: "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: serviceAccount(func(c *Config) {
				c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "token"
			}),
			errMsg: "multiple authentication methods configured",
		},
		{
			name:   "missing sheet name",
			config: serviceAccount(func(c *Config) { c.SheetName = "" }),
			errMsg: "sheet name is required",
		},
		{
			name:   "invalid batch size",
			config: serviceAccount(func(c *Config) { c.BatchSize = 0 }),
			errMsg: "batch size must be positive",
		},
		{
			name:   "no retries",
			config: serviceAccount(func(c *Config) { c.RetryAttempts, c.RetryDelay = 0, 0 }),
		},
		{
			name:   "negative retry delay",
			config: serviceAccount(func(c *Config) { c.RetryDelay = -time.Second }),
			errMsg: "retry delay cannot be negative",
		},
		{
			name:   "known time zone",
			config: serviceAccount(func(c *Config) { c.TimeZone = "Europe/Berlin" }),
		},
		{
			name:   "unknown time zone",
			config: serviceAccount(func(c *Config) { c.TimeZone = "Mars/Olympus" }),
			errMsg: "Mars/Olympus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Shopping List", cfg.SheetName)
	assert.Equal(t, "Pantry Shopping List", cfg.SpreadsheetName)
	assert.Positive(t, cfg.BatchSize)

	// Defaults alone lack credentials.
	assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)
}
