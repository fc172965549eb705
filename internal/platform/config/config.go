package config

import (
	"fmt"
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
	JWTSecret    string

	// Rate provider settings. BaseURL and APIKey are mandatory: the refresh
	// loop is useless without them, so startup fails fast when they are missing.
	RateProviderBaseURL    string
	RateProviderAPIKey     string
	SupportedCurrenciesURL string
	RateProviderTimeout    time.Duration
	RateRefreshInterval    time.Duration

	// RateLimit is an ulule/limiter formatted rate (e.g. "300-H").
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("RATE_PROVIDER_BASE_URL", "")
	viper.SetDefault("RATE_PROVIDER_API_KEY", "")
	viper.SetDefault("SUPPORTED_CURRENCIES_URL", "")
	viper.SetDefault("RATE_PROVIDER_TIMEOUT", "30s")
	viper.SetDefault("RATE_REFRESH_INTERVAL_MINUTES", 30)
	viper.SetDefault("RATE_LIMIT", "300-H")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("PGSQL_URL environment variable is required")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.RateProviderBaseURL = viper.GetString("RATE_PROVIDER_BASE_URL")
	if cfg.RateProviderBaseURL == "" {
		return nil, fmt.Errorf("RATE_PROVIDER_BASE_URL environment variable is required")
	}

	cfg.RateProviderAPIKey = viper.GetString("RATE_PROVIDER_API_KEY")
	if cfg.RateProviderAPIKey == "" {
		return nil, fmt.Errorf("RATE_PROVIDER_API_KEY environment variable is required")
	}

	// Optional: when empty, the supported-currency sync is skipped.
	cfg.SupportedCurrenciesURL = viper.GetString("SUPPORTED_CURRENCIES_URL")

	timeoutStr := viper.GetString("RATE_PROVIDER_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		log.Printf("Warning: Invalid value for RATE_PROVIDER_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
	}
	cfg.RateProviderTimeout = timeout

	intervalMinutes := viper.GetInt("RATE_REFRESH_INTERVAL_MINUTES")
	if intervalMinutes <= 0 {
		intervalMinutes = 30
		log.Printf("Warning: Invalid value for RATE_REFRESH_INTERVAL_MINUTES. Defaulting to %d.\n", intervalMinutes)
	}
	cfg.RateRefreshInterval = time.Duration(intervalMinutes) * time.Minute

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
