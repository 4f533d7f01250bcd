// Package sheets exports shopping lists to Google Sheets.
package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	SheetName          string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns the writer defaults. Credentials are never defaulted.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		SpreadsheetName:  "Pantry Shopping List",
		SheetName:        "Shopping List",
		TimeZone:         "America/New_York",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// Validate requires exactly one authentication method and sane batch and retry settings.
// An empty time zone means UTC.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	switch {
	case !hasOAuth && !hasServiceAccount:
		return invalid("no authentication method configured")
	case hasOAuth && hasServiceAccount:
		return invalid("multiple authentication methods configured; use either OAuth2 or service account")
	case c.SheetName == "":
		return invalid("sheet name is required")
	case c.BatchSize <= 0:
		return invalid("batch size must be positive")
	case c.RetryAttempts < 0:
		return invalid("retry attempts cannot be negative")
	case c.RetryDelay < 0:
		return invalid("retry delay cannot be negative")
	}

	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return fmt.Errorf("%w: sheets time zone %q: %w", common.ErrInvalidConfig, c.TimeZone, err)
		}
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: sheets: %s", common.ErrInvalidConfig, msg)
}
