package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	StoreDriver          string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir        string        `mapstructure:"MIGRATIONS_DIR"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	MappingFile          string        `mapstructure:"MAPPING_FILE"`
	SyncWorkers          int           `mapstructure:"SYNC_WORKERS"`
	PractitionerCacheTTL time.Duration `mapstructure:"PRACTITIONER_CACHE_TTL"`
	FetchTimeout         time.Duration `mapstructure:"FETCH_TIMEOUT"`
	FetchRetryMax        int           `mapstructure:"FETCH_RETRY_MAX"`
	AuthSigningKey       string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer           string        `mapstructure:"AUTH_ISSUER"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("MAPPING_FILE", "configs/mappings.yaml")
	v.SetDefault("SYNC_WORKERS", 8)
	v.SetDefault("PRACTITIONER_CACHE_TTL", "10m")
	v.SetDefault("FETCH_TIMEOUT", "30s")
	v.SetDefault("FETCH_RETRY_MAX", 0)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "STORE_DRIVER",
		"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
		"REDIS_URL", "MAPPING_FILE", "SYNC_WORKERS", "PRACTITIONER_CACHE_TTL",
		"FETCH_TIMEOUT", "FETCH_RETRY_MAX", "AUTH_SIGNING_KEY", "AUTH_ISSUER",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is usable. DATABASE_URL is only
// required for the postgres store, and outside development the trigger
// surface needs a signing key.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", StorePostgres)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreDriver)
	}
	if c.SyncWorkers < 1 {
		return fmt.Errorf("SYNC_WORKERS must be at least 1, got %d", c.SyncWorkers)
	}
	if c.PractitionerCacheTTL <= 0 {
		return fmt.Errorf("PRACTITIONER_CACHE_TTL must be positive")
	}
	if c.FetchRetryMax < 0 {
		return fmt.Errorf("FETCH_RETRY_MAX must not be negative")
	}
	if c.MappingFile == "" {
		return fmt.Errorf("MAPPING_FILE is required")
	}
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required outside development (current ENV=%q)", c.Env)
	}
	return nil
}
