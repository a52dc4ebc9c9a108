// Package config loads and validates client config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds client configuration loaded from the environment.
type Config struct {
	// APIBaseURL is the REST backend base URL (e.g. http://localhost:8000).
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	// HTTPTimeout is the fixed per-call timeout (e.g. "10s"). A call exceeding it fails as a network error.
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
	// StorageDriver selects durable storage: memory, sqlite, or postgres.
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	// StorageDSN is the sqlite file path or the postgres DSN.
	StorageDSN string `mapstructure:"STORAGE_DSN"`
	// ExpiryCheckInterval is how often the session expiry monitor re-checks the token.
	ExpiryCheckInterval time.Duration `mapstructure:"EXPIRY_CHECK_INTERVAL"`
	// PageLimit is the default page size for list operations (1–100).
	PageLimit int `mapstructure:"PAGE_LIMIT"`
	// DefaultLocale is used when no locale preference is stored.
	DefaultLocale string `mapstructure:"DEFAULT_LOCALE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Telemetry (optional). Empty endpoint gives no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName  string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:8000")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("STORAGE_DRIVER", StorageSQLite)
	v.SetDefault("STORAGE_DSN", ".quizclient/storage.db")
	v.SetDefault("EXPIRY_CHECK_INTERVAL", "60s")
	v.SetDefault("PAGE_LIMIT", 10)
	v.SetDefault("DEFAULT_LOCALE", "en")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "quiz-webclient")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("config: HTTP_TIMEOUT must be positive")
	}
	if c.ExpiryCheckInterval <= 0 {
		return errors.New("config: EXPIRY_CHECK_INTERVAL must be positive")
	}
	if c.PageLimit < 1 || c.PageLimit > 100 {
		return errors.New("config: PAGE_LIMIT must be between 1 and 100")
	}
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("config: STORAGE_DRIVER must be memory, sqlite or postgres, got %q", c.StorageDriver)
	}
	if c.StorageDriver != StorageMemory && c.StorageDSN == "" {
		return errors.New("config: STORAGE_DSN must be set for sql storage")
	}
	if c.StorageDriver == StorageMemory && c.Env == "production" {
		return errors.New("config: STORAGE_DRIVER=memory must not be used when APP_ENV=production")
	}
	return nil
}
