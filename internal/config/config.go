// Package config loads server configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	DBPath     string `env:"DB_PATH" envDefault:"./data/tripsplit.db"`
	StaticPath string `env:"STATIC_PATH" envDefault:"../frontend/static"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// JWTSecret is the HMAC key shared with the identity provider.
	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	TokenDuration time.Duration `env:"JWT_TOKEN_DURATION" envDefault:"24h"`

	// SettlementTolerance is the largest ledger drift the planner will absorb
	// before reporting the ledger as imbalanced.
	SettlementTolerance decimal.Decimal `env:"SETTLEMENT_TOLERANCE" envDefault:"0.01"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.SettlementTolerance.IsNegative() {
		return errors.New("SETTLEMENT_TOLERANCE must not be negative")
	}
	if c.TokenDuration <= 0 {
		return errors.New("JWT_TOKEN_DURATION must be positive")
	}
	return nil
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
