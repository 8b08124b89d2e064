package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/Simplici0/flourprice/internal/pricing"
	"github.com/Simplici0/flourprice/internal/yieldtable"
)

// Yield table sources.
const (
	YieldSourceFile   = "file"
	YieldSourceHTTP   = "http"
	YieldSourceSQLite = "sqlite"
	YieldSourceRedis  = "redis"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"dev"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DBPath   string `env:"DB_PATH" envDefault:"./dev.db"`

	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	SplitPolicy        string        `env:"SPLIT_POLICY" envDefault:"share"`
	YieldSource        string        `env:"YIELD_SOURCE" envDefault:"file"`
	YieldTablePath     string        `env:"YIELD_TABLE_PATH"`
	YieldTableURL      string        `env:"YIELD_TABLE_URL"`
	YieldLookupMode    string        `env:"YIELD_LOOKUP_MODE" envDefault:"linear"`
	YieldLookupTimeout time.Duration `env:"YIELD_LOOKUP_TIMEOUT" envDefault:"2s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisYieldKey string `env:"REDIS_YIELD_KEY" envDefault:"flourprice:yield_rates"`
}

// Load reads a local .env file if there is one, then parses and validates the environment.
// Variables already set in the environment win over the .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	policy, err := pricing.ParseSplitPolicy(c.SplitPolicy)
	if err != nil {
		return fmt.Errorf("SPLIT_POLICY: %w", err)
	}
	c.SplitPolicy = string(policy)

	mode, err := yieldtable.ParseMode(c.YieldLookupMode)
	if err != nil {
		return fmt.Errorf("YIELD_LOOKUP_MODE: %w", err)
	}
	c.YieldLookupMode = string(mode)

	if c.YieldLookupTimeout <= 0 {
		return fmt.Errorf("YIELD_LOOKUP_TIMEOUT must be positive")
	}

	switch c.YieldSource {
	case YieldSourceFile, YieldSourceSQLite, YieldSourceRedis:
	case YieldSourceHTTP:
		if c.YieldTableURL == "" {
			return fmt.Errorf("YIELD_TABLE_URL is required when YIELD_SOURCE=http")
		}
	default:
		return fmt.Errorf("YIELD_SOURCE: unknown source %q", c.YieldSource)
	}

	return nil
}

// IsDev reports whether the app runs in a development environment.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// Policy returns the validated split policy.
func (c *Config) Policy() pricing.SplitPolicy {
	return pricing.SplitPolicy(c.SplitPolicy)
}

// LookupMode returns the validated yield table lookup mode.
func (c *Config) LookupMode() yieldtable.Mode {
	return yieldtable.Mode(c.YieldLookupMode)
}
