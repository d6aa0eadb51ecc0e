package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseEnvDefaults(t *testing.T) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.ReconcileSchedule != "@every 1h" {
		t.Errorf("expected default schedule, got %q", cfg.ReconcileSchedule)
	}
	if !cfg.Metrics {
		t.Error("expected metrics enabled by default")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected 5s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("GASLEDGER_ADDR", "127.0.0.1:9000")
	t.Setenv("GASLEDGER_METRICS", "false")
	t.Setenv("GASLEDGER_RECONCILE_SCHEDULE", "*/15 * * * *")

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("expected overridden addr, got %q", cfg.Addr)
	}
	if cfg.Metrics {
		t.Error("expected metrics disabled")
	}
	if cfg.ReconcileSchedule != "*/15 * * * *" {
		t.Errorf("expected overridden schedule, got %q", cfg.ReconcileSchedule)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("GASLEDGER_SHUTDOWN_TIMEOUT", "soon")

	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GASLEDGER_ADMIN_USER=chef\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set; make sure
	// the test controls the value and that it is cleared afterwards.
	t.Setenv("GASLEDGER_ADMIN_USER", "")
	os.Unsetenv("GASLEDGER_ADMIN_USER")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AdminUser != "chef" {
		t.Errorf("expected admin user from file, got %q", cfg.AdminUser)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no schedule disables reconcile", func(c *Config) { c.ReconcileSchedule = "" }, false},
		{"bad schedule", func(c *Config) { c.ReconcileSchedule = "every tuesday" }, true},
		{"empty db", func(c *Config) { c.DBPath = " " }, true},
		{"empty addr", func(c *Config) { c.Addr = "" }, true},
		{"empty admin", func(c *Config) { c.AdminUser = "" }, true},
		{"zero timeout", func(c *Config) { c.ShutdownTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				DBPath: "x.db", Addr: ":8080", AdminUser: "Admin",
				ReconcileSchedule: "@every 1h", ShutdownTimeout: time.Second,
			}
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
