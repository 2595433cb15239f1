package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/democratize-technology/open-food-facts/internal/validate"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Retry     RetryConfig
}

// ServerConfig holds gateway server configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// APIConfig holds the Open Food Facts endpoints
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	InsightURL string `mapstructure:"insight_url"`
}

// AuthConfig holds the optional write credentials. Both fields must be
// set together or not at all; the gateway runs read-only without them.
type AuthConfig struct {
	UserID   string `mapstructure:"user_id"`
	Password string `mapstructure:"password"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// RetryConfig holds the retry policy for idempotent reads
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/open-food-facts/")

	// Environment variable settings
	v.SetEnvPrefix("OFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// API defaults
	v.SetDefault("api.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("api.insight_url", "https://robotoff.openfoodfacts.org")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
}

// validateConfig validates the configuration. The endpoint checks are
// the construction-time half of the transport guard: a gateway never
// starts around an unencrypted endpoint.
func validateConfig(config *Config) error {
	if err := validate.SecureEndpoint(config.API.BaseURL); err != nil {
		return err
	}
	if err := validate.SecureEndpoint(config.API.InsightURL); err != nil {
		return err
	}

	if (config.Auth.UserID == "") != (config.Auth.Password == "") {
		return fmt.Errorf("auth.user_id and auth.password must be set together")
	}

	if config.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got: %d", config.Retry.MaxAttempts)
	}

	return nil
}
