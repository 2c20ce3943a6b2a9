// Package config loads service configuration from STANZA_-prefixed
// environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the backend service.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Database driver: sqlite or postgres
	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`

	// Postgres Configuration, required when DBDriver is postgres
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/stanza.db"`

	// Shared secret for bearer token verification; empty disables auth and
	// every request runs anonymously
	AuthSecret string `envconfig:"AUTH_SECRET" default:""`

	// Health Configuration
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// New loads and validates configuration from the environment.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("STANZA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("STANZA_SQLITE_PATH is required when DB driver is sqlite")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("STANZA_POSTGRES_DSN is required when DB driver is postgres")
		}
	default:
		return fmt.Errorf("unsupported DB driver: %s", c.DBDriver)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	return nil
}

// HTTPAddr returns the listen address.
func (c *Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
