// Package seeding generates deterministic synthetic complaint datasets for
// local development and demos.
package seeding

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cx-insights/complaints/internal/config"
)

// DefaultConfigPath is the default location for the seeder configuration file.
// Uses hidden file format following common tool conventions (.eslintrc, .prettierrc, etc.).
const DefaultConfigPath = ".insights.yaml"

// ConfigPathEnvVar is the environment variable name for a custom config path.
const ConfigPathEnvVar = "INSIGHTS_CONFIG_PATH"

// Config holds seeder configuration loaded from .insights.yaml.
//
// Every field is optional; unset fields fall back to the built-in domains and
// row count, so the seeder runs with zero configuration.
type Config struct {
	RowCount   int      `yaml:"row_count"`
	Seed       int64    `yaml:"seed"`
	Countries  []string `yaml:"countries"`
	Channels   []string `yaml:"channels"`
	Categories []string `yaml:"categories"`
	Statuses   []string `yaml:"statuses"`
}

// DefaultConfig returns the built-in generation parameters.
func DefaultConfig() *Config {
	return &Config{
		RowCount:   1000,
		Seed:       42,
		Countries:  []string{"USA", "UK", "Canada", "Germany", "France", "Brazil", "Japan"},
		Channels:   []string{"Email", "Phone", "Chat", "Social Media", "Web Form"},
		Categories: []string{"Billing", "Technical Support", "Product Quality", "Shipping", "Account Access"},
		Statuses:   []string{"Open", "Closed", "In Progress", "Escalated", "Resolved"},
	}
}

// LoadConfig loads seeder configuration from a YAML file at the given path.
//
// Behavior:
//   - Returns the defaults (not an error) if the file doesn't exist
//   - Returns the defaults + logs a warning if the YAML is invalid (graceful degradation)
//   - Merges file values over the defaults on success
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config source
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("Config file not found, using built-in generation defaults",
				slog.String("path", path))

			return cfg, nil
		}

		slog.Warn("Failed to read config file, using built-in generation defaults",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return cfg, nil
	}

	if len(data) == 0 {
		return cfg, nil
	}

	var overrides Config

	if err := yaml.Unmarshal(data, &overrides); err != nil {
		slog.Warn("Failed to parse config file, using built-in generation defaults",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return DefaultConfig(), nil
	}

	cfg.merge(&overrides)

	return cfg, nil
}

// LoadConfigFromEnv loads config from the path specified in INSIGHTS_CONFIG_PATH
// environment variable. Falls back to ".insights.yaml" in current directory if not set.
func LoadConfigFromEnv() (*Config, error) {
	path := config.GetEnvStr(ConfigPathEnvVar, DefaultConfigPath)

	return LoadConfig(path)
}

// merge applies non-zero override fields on top of the receiver.
func (c *Config) merge(overrides *Config) {
	if overrides.RowCount > 0 {
		c.RowCount = overrides.RowCount
	}

	if overrides.Seed != 0 {
		c.Seed = overrides.Seed
	}

	if len(overrides.Countries) > 0 {
		c.Countries = overrides.Countries
	}

	if len(overrides.Channels) > 0 {
		c.Channels = overrides.Channels
	}

	if len(overrides.Categories) > 0 {
		c.Categories = overrides.Categories
	}

	if len(overrides.Statuses) > 0 {
		c.Statuses = overrides.Statuses
	}
}
