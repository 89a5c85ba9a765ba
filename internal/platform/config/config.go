package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Quote provider
	QuoteAPIBaseURL string
	QuoteAPIKey     string

	// Rate sync engine
	DefaultCurrency    string
	RefreshHour        int
	RefreshTimezone    string
	BackfillPacing     time.Duration
	BackfillWorkers    int
	StartupSyncEnabled bool
	TriggerRateLimit   string // ulule/limiter formatted, e.g. "5-M"
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("QUOTE_API_BASE_URL", "https://eodhd.com")
	viper.SetDefault("QUOTE_API_KEY", "")
	viper.SetDefault("DEFAULT_CURRENCY", "USD")
	viper.SetDefault("RATE_REFRESH_HOUR", 17)
	viper.SetDefault("RATE_REFRESH_TIMEZONE", "America/New_York")
	viper.SetDefault("BACKFILL_PACING", "500ms")
	viper.SetDefault("BACKFILL_WORKERS", 3)
	viper.SetDefault("STARTUP_SYNC_ENABLED", true)
	viper.SetDefault("TRIGGER_RATE_LIMIT", "5-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.QuoteAPIBaseURL = viper.GetString("QUOTE_API_BASE_URL")
	cfg.QuoteAPIKey = viper.GetString("QUOTE_API_KEY")
	if cfg.QuoteAPIKey == "" {
		log.Println("Warning: QUOTE_API_KEY environment variable not set. Rate sync will not fetch quotes.")
	}

	cfg.DefaultCurrency = viper.GetString("DEFAULT_CURRENCY")

	cfg.RefreshHour = viper.GetInt("RATE_REFRESH_HOUR")
	if cfg.RefreshHour < 0 || cfg.RefreshHour > 23 {
		log.Printf("Warning: Invalid value for RATE_REFRESH_HOUR (%d). Defaulting to 17.\n", cfg.RefreshHour)
		cfg.RefreshHour = 17
	}

	cfg.RefreshTimezone = viper.GetString("RATE_REFRESH_TIMEZONE")

	pacingStr := viper.GetString("BACKFILL_PACING")
	pacing, err := time.ParseDuration(pacingStr)
	if err != nil {
		pacing = 500 * time.Millisecond
		log.Printf("Warning: Invalid value for BACKFILL_PACING ('%s'). Defaulting to %s.\n", pacingStr, pacing)
	}
	cfg.BackfillPacing = pacing

	cfg.BackfillWorkers = viper.GetInt("BACKFILL_WORKERS")
	if cfg.BackfillWorkers < 1 {
		log.Printf("Warning: Invalid value for BACKFILL_WORKERS (%d). Defaulting to 3.\n", cfg.BackfillWorkers)
		cfg.BackfillWorkers = 3
	}

	cfg.StartupSyncEnabled = viper.GetBool("STARTUP_SYNC_ENABLED")
	cfg.TriggerRateLimit = viper.GetString("TRIGGER_RATE_LIMIT")

	return cfg, nil
}
