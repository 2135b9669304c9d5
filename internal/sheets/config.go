// Package sheets publishes batch lookup reports to Google Sheets.
package sheets

import (
	"errors"
	"net/http"

	"github.com/Veraticus/business-anzsic-locator/internal/resilience"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	// HTTPClient, when set, is used as-is and no credentials are loaded.
	HTTPClient *http.Client
	Executor   *resilience.Executor

	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string

	SpreadsheetID   string
	SpreadsheetName string
	SheetTitle      string
	TimeZone        string
	Endpoint        string
	BatchSize       int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName: "ANZSIC Classifications",
		SheetTitle:      "Classifications",
		TimeZone:        "Australia/Sydney",
		BatchSize:       500,
	}
}

func (c *Config) hasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && (c.RefreshToken != "" || c.TokenFile != "")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPClient == nil {
		hasServiceAccount := c.ServiceAccountPath != ""
		if !c.hasOAuth() && !hasServiceAccount {
			return errors.New("no authentication method configured: set a service account path or OAuth2 client credentials with a refresh token")
		}
		if c.hasOAuth() && hasServiceAccount {
			return errors.New("multiple authentication methods configured; use either OAuth2 or service account")
		}
	}

	if c.SpreadsheetID == "" && c.SpreadsheetName == "" {
		return errors.New("spreadsheet id or name is required")
	}
	if c.SheetTitle == "" {
		return errors.New("sheet title is required")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	return nil
}
