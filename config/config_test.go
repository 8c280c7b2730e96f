package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdirTemp switches into a fresh directory for the duration of the test
func chdirTemp(t *testing.T) string {
	t.Helper()
	originalDir, _ := os.Getwd()
	tempDir := t.TempDir()
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(originalDir) })
	return tempDir
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 10*time.Minute {
			t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
		}
		if cfg.Cache.GeocodeTTL != 30*time.Minute {
			t.Errorf("Cache.GeocodeTTL = %v, want 30m", cfg.Cache.GeocodeTTL)
		}
		if cfg.Naver.BaseURL != "https://openapi.naver.com" {
			t.Errorf("Naver.BaseURL = %s, want https://openapi.naver.com", cfg.Naver.BaseURL)
		}
		if cfg.Naver.RetryMax != 3 {
			t.Errorf("Naver.RetryMax = %d, want 3", cfg.Naver.RetryMax)
		}
		if cfg.Matching.MinScore != 0.35 {
			t.Errorf("Matching.MinScore = %v, want 0.35", cfg.Matching.MinScore)
		}
		if cfg.Matching.MaxItems != 30 {
			t.Errorf("Matching.MaxItems = %d, want 30", cfg.Matching.MaxItems)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.API.BaseURL != "http://localhost:8080" {
			t.Errorf("API.BaseURL = %s, want http://localhost:8080", cfg.API.BaseURL)
		}
		if cfg.API.MaxResolutionRounds != 3 {
			t.Errorf("API.MaxResolutionRounds = %d, want 3", cfg.API.MaxResolutionRounds)
		}
		if cfg.GeocoderConfigured() {
			t.Error("GeocoderConfigured() = true, want false without credentials")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("TTOKJANG_SERVER_PORT", "9090")
		t.Setenv("TTOKJANG_SERVER_ENVIRONMENT", "production")
		t.Setenv("TTOKJANG_SERVER_ALLOWED_ORIGINS", "https://ttokjang.kr,http://localhost:3000")
		t.Setenv("TTOKJANG_LOG_LEVEL", "debug")
		t.Setenv("TTOKJANG_CACHE_TYPE", "redis")
		t.Setenv("TTOKJANG_CACHE_REDIS_URL", "redis://localhost:6379")
		t.Setenv("TTOKJANG_CACHE_TTL", "24h")
		t.Setenv("TTOKJANG_NAVER_CLIENT_ID", "id")
		t.Setenv("TTOKJANG_NAVER_CLIENT_SECRET", "secret")
		t.Setenv("TTOKJANG_MATCHING_MIN_SCORE", "0.5")
		t.Setenv("TTOKJANG_RATELIMIT_PER_IP", "200")
		t.Setenv("TTOKJANG_API_BASE_URL", "https://api.ttokjang.kr")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != "https://ttokjang.kr" {
			t.Errorf("Server.AllowedOrigins = %v, want two origins", cfg.Server.AllowedOrigins)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if !cfg.GeocoderConfigured() {
			t.Error("GeocoderConfigured() = false, want true")
		}
		if cfg.Matching.MinScore != 0.5 {
			t.Errorf("Matching.MinScore = %v, want 0.5", cfg.Matching.MinScore)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.API.BaseURL != "https://api.ttokjang.kr" {
			t.Errorf("API.BaseURL = %s, want https://api.ttokjang.kr", cfg.API.BaseURL)
		}
	})

	t.Run("reads an explicit config file", func(t *testing.T) {
		dir := chdirTemp(t)
		path := filepath.Join(dir, "ttokjang.yaml")
		content := `
server:
  port: "7070"
catalog:
  path: /var/lib/ttokjang/catalog.db
matching:
  suggest_limit: 5
api:
  timeout: 5s
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if cfg.Catalog.Path != "/var/lib/ttokjang/catalog.db" {
			t.Errorf("Catalog.Path = %s", cfg.Catalog.Path)
		}
		if cfg.Matching.SuggestLimit != 5 {
			t.Errorf("Matching.SuggestLimit = %d, want 5", cfg.Matching.SuggestLimit)
		}
		if cfg.API.Timeout != 5*time.Second {
			t.Errorf("API.Timeout = %v, want 5s", cfg.API.Timeout)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want default memory", cfg.Cache.Type)
		}
	})

	t.Run("fails when an explicit config file is missing", func(t *testing.T) {
		dir := chdirTemp(t)

		if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
			t.Error("Load() error = nil, want error for missing explicit file")
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("TTOKJANG_CACHE_TYPE", "invalid")

		_, err := Load("")
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("TTOKJANG_CACHE_TYPE", "redis")

		_, err := Load("")
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing Redis URL")
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration: redis URL is required") {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("picks up values from .env", func(t *testing.T) {
		chdirTemp(t)
		if err := os.WriteFile(".env", []byte("TTOKJANG_SERVER_PORT=6060\n"), 0644); err != nil {
			t.Fatalf("write .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("TTOKJANG_SERVER_PORT") })

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "6060" {
			t.Errorf("Server.Port = %s, want 6060", cfg.Server.Port)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		chdirTemp(t)

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		chdirTemp(t)

		envContent := `
# Comment line
TEST_VAR_1=value1
   # indented comment

TEST_VAR_2=value2
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
		})

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func validConfig() *Config {
	return &Config{
		Log:      LogConfig{Level: "info"},
		Catalog:  CatalogConfig{Path: "data/ttokjang.db"},
		Cache:    CacheConfig{Type: "memory"},
		Matching: MatchingConfig{MinScore: 0.35, MaxItems: 30},
		API:      APIConfig{BaseURL: "http://localhost:8080"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "redis with URL", mutate: func(c *Config) {
			c.Cache.Type = "redis"
			c.Cache.RedisURL = "redis://localhost:6379"
		}},
		{name: "redis without URL", mutate: func(c *Config) { c.Cache.Type = "redis" }, wantErr: true},
		{name: "invalid cache type", mutate: func(c *Config) { c.Cache.Type = "memcached" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "empty catalog path", mutate: func(c *Config) { c.Catalog.Path = "" }, wantErr: true},
		{name: "min score above one", mutate: func(c *Config) { c.Matching.MinScore = 1.5 }, wantErr: true},
		{name: "zero max items", mutate: func(c *Config) { c.Matching.MaxItems = 0 }, wantErr: true},
		{name: "naver id without secret", mutate: func(c *Config) { c.Naver.ClientID = "id" }, wantErr: true},
		{name: "empty api base url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
