package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
)

// Environment variables honoured when the config file leaves a key empty.
const (
	EnvGoogleAPIKey    = "GOOGLE_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"

	EnvSheetsClientID       = "GOOGLE_SHEETS_CLIENT_ID"
	EnvSheetsClientSecret   = "GOOGLE_SHEETS_CLIENT_SECRET"
	EnvSheetsRefreshToken   = "GOOGLE_SHEETS_REFRESH_TOKEN"
	EnvSheetsServiceAccount = "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"
	EnvSheetsSpreadsheetID  = "GOOGLE_SHEETS_SPREADSHEET_ID"
)

// PlacesSettings configures the place-lookup provider.
type PlacesSettings struct {
	APIKey           string
	Endpoint         string
	TextTimeout      time.Duration
	NearbyTimeout    time.Duration
	NearbyRadius     float64
	NearbyMaxResults int
	MaxRetries       int
	// Demo serves canned places when no usable API key is configured.
	Demo bool
}

// UseDemo reports whether the demo lookup stands in for the real provider.
func (p PlacesSettings) UseDemo() bool {
	return p.Demo && !p.HasKey()
}

// HasKey reports whether a real, non-placeholder key is configured.
func (p PlacesSettings) HasKey() bool {
	key := strings.TrimSpace(p.APIKey)
	return key != "" && key != "your_api_key_here"
}

// LLMSettings configures the AI classification provider.
type LLMSettings struct {
	Provider       string
	Model          string
	APIKey         string
	Endpoint       string
	ClaudeCodePath string
	Timeout        time.Duration
	Temperature    float64
	MaxTokens      int
	RateLimit      int
	MaxRetries     int
	Disabled       bool
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr      string
	RateLimit float64
	Burst     int
}

// SheetsSettings configures publishing batch reports to Google Sheets.
type SheetsSettings struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	SheetTitle         string
	TimeZone           string
	BatchSize          int
}

// Settings is the resolved configuration for every command.
type Settings struct {
	Places          PlacesSettings
	LLM             LLMSettings
	Server          ServerSettings
	Sheets          SheetsSettings
	TaxonomyPath    string
	DatabasePath    string
	CacheMaxEntries int
	HistoryDisabled bool
}

// HistoryEnabled reports whether lookups are recorded.
func (s Settings) HistoryEnabled() bool {
	return !s.HistoryDisabled && s.DatabasePath != ""
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("places.api_key", "")
	v.SetDefault("places.demo", true)
	v.SetDefault("places.text_timeout", 10*time.Second)
	v.SetDefault("places.nearby_timeout", 5*time.Second)
	v.SetDefault("places.nearby_radius", 50.0)
	v.SetDefault("places.nearby_max_results", 20)
	v.SetDefault("places.max_retries", 2)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.disabled", false)

	v.SetDefault("cache.max_entries", 0)
	v.SetDefault("taxonomy.path", "")
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("database.disabled", false)

	v.SetDefault("server.addr", ":5001")
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.burst", 20)

	v.SetDefault("sheets.token_file", filepath.Join(ConfigDir(), "sheets_token.json"))
	v.SetDefault("sheets.spreadsheet_name", "ANZSIC Classifications")
	v.SetDefault("sheets.sheet_title", "Classifications")
	v.SetDefault("sheets.time_zone", "Australia/Sydney")
	v.SetDefault("sheets.batch_size", 500)
}

// Load reads Settings from v, applying environment fallbacks for API keys.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Places: PlacesSettings{
			APIKey:           firstNonEmpty(v.GetString("places.api_key"), os.Getenv(EnvGoogleAPIKey)),
			Endpoint:         v.GetString("places.endpoint"),
			Demo:             v.GetBool("places.demo"),
			TextTimeout:      v.GetDuration("places.text_timeout"),
			NearbyTimeout:    v.GetDuration("places.nearby_timeout"),
			NearbyRadius:     v.GetFloat64("places.nearby_radius"),
			NearbyMaxResults: v.GetInt("places.nearby_max_results"),
			MaxRetries:       v.GetInt("places.max_retries"),
		},
		LLM: LLMSettings{
			Provider:       strings.ToLower(v.GetString("llm.provider")),
			Model:          v.GetString("llm.model"),
			Endpoint:       v.GetString("llm.endpoint"),
			ClaudeCodePath: v.GetString("llm.claude_code_path"),
			Timeout:        v.GetDuration("llm.timeout"),
			Temperature:    v.GetFloat64("llm.temperature"),
			MaxTokens:      v.GetInt("llm.max_tokens"),
			RateLimit:      v.GetInt("llm.rate_limit"),
			MaxRetries:     v.GetInt("llm.max_retries"),
			Disabled:       v.GetBool("llm.disabled"),
		},
		Server: ServerSettings{
			Addr:      v.GetString("server.addr"),
			RateLimit: v.GetFloat64("server.rate_limit"),
			Burst:     v.GetInt("server.burst"),
		},
		Sheets: SheetsSettings{
			ClientID:           firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv(EnvSheetsClientID)),
			ClientSecret:       firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv(EnvSheetsClientSecret)),
			RefreshToken:       firstNonEmpty(v.GetString("sheets.refresh_token"), os.Getenv(EnvSheetsRefreshToken)),
			TokenFile:          ExpandPath(v.GetString("sheets.token_file")),
			ServiceAccountPath: ExpandPath(firstNonEmpty(v.GetString("sheets.service_account_path"), os.Getenv(EnvSheetsServiceAccount))),
			SpreadsheetID:      firstNonEmpty(v.GetString("sheets.spreadsheet_id"), os.Getenv(EnvSheetsSpreadsheetID)),
			SpreadsheetName:    v.GetString("sheets.spreadsheet_name"),
			SheetTitle:         v.GetString("sheets.sheet_title"),
			TimeZone:           v.GetString("sheets.time_zone"),
			BatchSize:          v.GetInt("sheets.batch_size"),
		},
		TaxonomyPath:    ExpandPath(v.GetString("taxonomy.path")),
		DatabasePath:    ExpandPath(v.GetString("database.path")),
		CacheMaxEntries: v.GetInt("cache.max_entries"),
		HistoryDisabled: v.GetBool("database.disabled"),
	}
	s.LLM.APIKey = firstNonEmpty(v.GetString("llm.api_key"), providerKeyFromEnv(s.LLM.Provider))

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings no component can run with.
func (s Settings) Validate() error {
	switch s.LLM.Provider {
	case "", "gemini", "openai", "anthropic", "claudecode":
	default:
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}
	if s.Places.NearbyRadius <= 0 {
		return fmt.Errorf("%w: places.nearby_radius must be positive", common.ErrInvalidConfig)
	}
	if s.Places.NearbyMaxResults <= 0 {
		return fmt.Errorf("%w: places.nearby_max_results must be positive", common.ErrInvalidConfig)
	}
	if s.CacheMaxEntries < 0 {
		return fmt.Errorf("%w: cache.max_entries cannot be negative", common.ErrInvalidConfig)
	}
	if s.Sheets.BatchSize <= 0 {
		return fmt.Errorf("%w: sheets.batch_size must be positive", common.ErrInvalidConfig)
	}
	if s.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv(EnvOpenAIAPIKey)
	case "anthropic":
		return os.Getenv(EnvAnthropicAPIKey)
	case "claudecode":
		return ""
	default:
		return os.Getenv(EnvGeminiAPIKey)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
