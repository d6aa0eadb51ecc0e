// Package config reads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config is the server configuration. Command-line flags override it.
type Config struct {
	DBPath            string        `env:"GASLEDGER_DB"                 envDefault:"gasledger.sqlite3"`
	Addr              string        `env:"GASLEDGER_ADDR"               envDefault:":8080"`
	AdminUser         string        `env:"GASLEDGER_ADMIN_USER"         envDefault:"Admin"`
	LogPath           string        `env:"GASLEDGER_LOG"`
	ReconcileSchedule string        `env:"GASLEDGER_RECONCILE_SCHEDULE" envDefault:"@every 1h"`
	Metrics           bool          `env:"GASLEDGER_METRICS"            envDefault:"true"`
	ShutdownTimeout   time.Duration `env:"GASLEDGER_SHUTDOWN_TIMEOUT"   envDefault:"5s"`
}

// Load reads envFile (or ./.env when envFile is empty) into the process
// environment and parses the result. A missing file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "database path required")
	}
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "listen address required")
	}
	if strings.TrimSpace(c.AdminUser) == "" {
		problems = append(problems, "admin username required")
	}
	if c.ReconcileSchedule != "" {
		if _, err := cron.ParseStandard(c.ReconcileSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid reconcile schedule %q: %v", c.ReconcileSchedule, err))
		}
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "shutdown timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
