package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from an optional YAML
// file named by DASHGATE_CONFIG, then environment variables.
type Config struct {
	BaseURL   string  `yaml:"base_url"`   // DASHGATE_BASE_URL, default "http://localhost:8080/api/v1"
	TenantID  string  `yaml:"tenant_id"`  // DASHGATE_TENANT_ID, default tenant 1
	ExportDir string  `yaml:"export_dir"` // DASHGATE_EXPORT_DIR, default "."
	RateLimit float64 `yaml:"rate_limit"` // DASHGATE_RATE_LIMIT, requests/s, 0 = off
	LogLevel  string  `yaml:"log_level"`  // DASHGATE_LOG_LEVEL, default "info"
	StubAddr  string  `yaml:"stub_addr"`  // DASHGATE_STUB_ADDR, default ":8080"
	StubDB    string  `yaml:"stub_db"`    // DASHGATE_STUB_DB, default "dashstub.db"
}

// DefaultTenantID is the seeded development tenant.
const DefaultTenantID = "00000000-0000-0000-0000-000000000001"

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:   "http://localhost:8080/api/v1",
		TenantID:  DefaultTenantID,
		ExportDir: ".",
		LogLevel:  "info",
		StubAddr:  ":8080",
		StubDB:    "dashstub.db",
	}
}

// Load reads configuration from the optional file and environment variables
// with sensible defaults.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("DASHGATE_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.BaseURL = envOr("DASHGATE_BASE_URL", cfg.BaseURL)
	cfg.TenantID = envOr("DASHGATE_TENANT_ID", cfg.TenantID)
	cfg.ExportDir = envOr("DASHGATE_EXPORT_DIR", cfg.ExportDir)
	cfg.LogLevel = envOr("DASHGATE_LOG_LEVEL", cfg.LogLevel)
	cfg.StubAddr = envOr("DASHGATE_STUB_ADDR", cfg.StubAddr)
	cfg.StubDB = envOr("DASHGATE_STUB_DB", cfg.StubDB)
	if v := os.Getenv("DASHGATE_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse DASHGATE_RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = rps
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports settings the gateway cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base url is required"))
	}
	if len(c.TenantID) != 36 || uuid.Validate(c.TenantID) != nil {
		errs = append(errs, fmt.Errorf("tenant id %q is not a UUID", c.TenantID))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit %v must not be negative", c.RateLimit))
	}
	return errors.Join(errs...)
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
