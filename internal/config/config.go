// Package config loads billpay settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Port     int    `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// CacheBackend selects the durable cache tier: sqlite or redis.
	CacheBackend string `mapstructure:"CACHE_BACKEND"`
	// DBPath is the SQLite file holding cashiers, the payment log and, with
	// the sqlite backend, the durable cache tier.
	DBPath        string `mapstructure:"DB_PATH"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	BillingAPIURL      string        `mapstructure:"BILLING_API_URL"`
	BillingAPIUser     string        `mapstructure:"BILLING_API_USER"`
	BillingAPIPassword string        `mapstructure:"BILLING_API_PASSWORD"`
	BillingAPITimeout  time.Duration `mapstructure:"BILLING_API_TIMEOUT"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	TokenDuration time.Duration `mapstructure:"TOKEN_DURATION"`

	// CacheRetention is how long payment cache entries survive pruning.
	CacheRetention time.Duration `mapstructure:"CACHE_RETENTION"`
}

var keys = []string{
	"PORT",
	"LOG_LEVEL",
	"CACHE_BACKEND",
	"DB_PATH",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"BILLING_API_URL",
	"BILLING_API_USER",
	"BILLING_API_PASSWORD",
	"BILLING_API_TIMEOUT",
	"JWT_SECRET",
	"TOKEN_DURATION",
	"CACHE_RETENTION",
}

// Load reads the given .env files (".env" when none are named) into the
// process environment, then builds a Config from the environment. Missing
// .env files are not an error; real environment variables win over them.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_BACKEND", BackendSQLite)
	v.SetDefault("DB_PATH", "./data/billpay.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("BILLING_API_TIMEOUT", "30s")
	v.SetDefault("TOKEN_DURATION", "12h")
	v.SetDefault("CACHE_RETENTION", "168h")

	// Bind env vars explicitly so Unmarshal picks up keys without defaults
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	switch c.CacheBackend {
	case BackendSQLite:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND is %q", BackendRedis)
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendRedis, c.CacheBackend)
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.CacheRetention <= 0 {
		return fmt.Errorf("CACHE_RETENTION must be positive, got %s", c.CacheRetention)
	}
	return nil
}

// ValidateBillingAPI checks the settings needed to reach the billing API.
func (c *Config) ValidateBillingAPI() error {
	if c.BillingAPIURL == "" {
		return fmt.Errorf("BILLING_API_URL is required")
	}
	return nil
}

// ValidateServe checks the settings needed to run the RPC server.
func (c *Config) ValidateServe() error {
	if err := c.ValidateBillingAPI(); err != nil {
		return err
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("TOKEN_DURATION must be positive, got %s", c.TokenDuration)
	}
	return nil
}
