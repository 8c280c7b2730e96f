package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Naver     NaverConfig     `mapstructure:"naver"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	API       APIConfig       `mapstructure:"api"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogConfig locates the product catalog database and its seed file
type CatalogConfig struct {
	Path     string `mapstructure:"path"`
	SeedFile string `mapstructure:"seed_file"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL   string        `mapstructure:"redis_url"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
	TTL        time.Duration `mapstructure:"ttl"`
	GeocodeTTL time.Duration `mapstructure:"geocode_ttl"`
}

// NaverConfig holds local search API configuration
type NaverConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
}

// MatchingConfig tunes catalog matching
type MatchingConfig struct {
	MinScore     float64 `mapstructure:"min_score"`
	SuggestLimit int     `mapstructure:"suggest_limit"`
	MaxItems     int     `mapstructure:"max_items"`
	Concurrency  int     `mapstructure:"concurrency"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute per client IP
	Naver int `mapstructure:"naver"`  // outgoing local search requests per second
}

// APIConfig is the client-side view of the offline API used by the CLI
type APIConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	RetryMax            int           `mapstructure:"retry_max"`
	MaxResolutionRounds int           `mapstructure:"max_resolution_rounds"`
}

// Load loads configuration from environment variables and config files.
// An empty path searches the default locations.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ttokjang/")
	}

	// Environment variable settings: TTOKJANG_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("TTOKJANG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports variables from ./.env without overriding ones already set.
// A missing file is not an error.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values. Every key gets a default so
// AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")

	v.SetDefault("catalog.path", "data/ttokjang.db")
	v.SetDefault("catalog.seed_file", "data/catalog_seed.yaml")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "ttokjang:")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.geocode_ttl", "30m")

	// Local search defaults
	v.SetDefault("naver.client_id", "")
	v.SetDefault("naver.client_secret", "")
	v.SetDefault("naver.base_url", "https://openapi.naver.com")
	v.SetDefault("naver.timeout", "8s")
	v.SetDefault("naver.retry_max", 3)

	v.SetDefault("matching.min_score", 0.35)
	v.SetDefault("matching.suggest_limit", 3)
	v.SetDefault("matching.max_items", 30)
	v.SetDefault("matching.concurrency", 4)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.naver", 10)

	// Client defaults
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.retry_max", 0)
	v.SetDefault("api.max_resolution_rounds", 3)
}

// validate validates the configuration
func validate(config *Config) error {
	if _, err := zapcore.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log level %q is not valid", config.Log.Level)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis' (set TTOKJANG_CACHE_REDIS_URL)")
	}

	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required")
	}

	if config.Matching.MinScore <= 0 || config.Matching.MinScore > 1 {
		return fmt.Errorf("matching min score must be in (0, 1], got: %v", config.Matching.MinScore)
	}

	if config.Matching.MaxItems <= 0 {
		return fmt.Errorf("matching max items must be positive, got: %d", config.Matching.MaxItems)
	}

	if (config.Naver.ClientID == "") != (config.Naver.ClientSecret == "") {
		return fmt.Errorf("naver client id and secret must be set together")
	}

	if config.API.BaseURL == "" {
		return fmt.Errorf("api base URL is required")
	}

	return nil
}

// GeocoderConfigured reports whether local search credentials are present
func (c *Config) GeocoderConfigured() bool {
	return c.Naver.ClientID != "" && c.Naver.ClientSecret != ""
}
