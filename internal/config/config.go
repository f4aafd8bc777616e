package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinSecretLength is the shortest fairness secret accepted at boot.
const MinSecretLength = 32

// Config holds all configuration for the application
type Config struct {
	// Fairness
	FairnessSecret   string `env:"FAIRNESS_SECRET"`
	RotateSchedule   string `env:"FAIRNESS_ROTATE_SCHEDULE" envDefault:"@daily"`
	RotateFromRandom bool   `env:"FAIRNESS_ROTATE_RANDOM" envDefault:"false"`
	SecretFile       string `env:"FAIRNESS_SECRET_FILE"` // re-read on each scheduled rotation

	// Storage
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBDSN    string `env:"DB_DSN" envDefault:"gamblinghall.db"`

	// Elasticsearch audit mirror, disabled when ESURL is empty
	ESURL          string        `env:"ES_URL"`
	ESUsername     string        `env:"ES_USERNAME"`
	ESPassword     string        `env:"ES_PASSWORD"`
	ESIndexPrefix  string        `env:"ES_INDEX_PREFIX" envDefault:"gamblinghall"`
	AuditRetention time.Duration `env:"AUDIT_RETENTION" envDefault:"2160h"`
	AuditPrune     string        `env:"AUDIT_PRUNE_SCHEDULE" envDefault:"@weekly"`

	// Locking
	RedisAddr   string        `env:"REDIS_ADDR"`
	LockTimeout time.Duration `env:"LOCK_TIMEOUT" envDefault:"2s"`

	// Rate limiting per player
	RatePerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"5"`
	RateBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Bet limits
	MinBet        int64 `env:"MIN_BET" envDefault:"10"`
	MaxBet        int64 `env:"MAX_BET" envDefault:"10000"`
	LotteryMinBet int64 `env:"LOTTERY_MIN_BET" envDefault:"100"`
	LotteryMaxBet int64 `env:"LOTTERY_MAX_BET" envDefault:"5000"`

	// Wallet opening balance for players the account layer has not funded
	OpeningBalance int64 `env:"OPENING_BALANCE" envDefault:"1000"`

	// HTTP
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"production"` // "development" or "production"
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from a .env file, if present, and the environment
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	return FromEnv()
}

// FromEnv parses the process environment without touching .env files
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	if c.FairnessSecret == "" {
		return fmt.Errorf("FAIRNESS_SECRET is required")
	}
	if len(c.FairnessSecret) < MinSecretLength {
		return fmt.Errorf("FAIRNESS_SECRET must be at least %d bytes", MinSecretLength)
	}
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.DBDriver)
	}
	if c.MinBet <= 0 || c.MaxBet < c.MinBet {
		return fmt.Errorf("invalid bet limits %d..%d", c.MinBet, c.MaxBet)
	}
	if c.LotteryMinBet <= 0 || c.LotteryMaxBet < c.LotteryMinBet {
		return fmt.Errorf("invalid lottery bet limits %d..%d", c.LotteryMinBet, c.LotteryMaxBet)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive")
	}
	return nil
}

// RotationEnabled reports whether the fairness secret has a rotation source
func (c *Config) RotationEnabled() bool {
	return c.RotateFromRandom || c.SecretFile != ""
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AuditEnabled reports whether wagers are mirrored to Elasticsearch
func (c *Config) AuditEnabled() bool {
	return c.ESURL != ""
}
