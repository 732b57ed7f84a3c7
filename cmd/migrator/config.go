package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cx-insights/complaints/internal/config"
)

// Configuration errors.
var (
	ErrDatabaseURLRequired   = errors.New("DATABASE_URL cannot be empty")
	ErrMigrationTableEmpty   = errors.New("MIGRATION_TABLE cannot be empty")
	ErrMigrationsPathInvalid = errors.New("failed to resolve migrations path")
)

// Config holds all configuration for the migration tool.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// MigrationsPath optionally points at an on-disk migrations directory.
	// When empty, the migrations embedded in the binary are used, which is
	// the zero-config deployment path.
	MigrationsPath string

	// MigrationTable is the name of the table that tracks applied migrations.
	MigrationTable string
}

// LoadConfig loads configuration from environment variables with sensible defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    config.GetEnvStr("DATABASE_URL", ""),
		MigrationsPath: config.GetEnvStr("MIGRATIONS_PATH", ""),
		MigrationTable: config.GetEnvStr("MIGRATION_TABLE", "schema_migrations"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}

	if c.MigrationTable == "" {
		return ErrMigrationTableEmpty
	}

	// Empty path means embedded migrations, nothing to resolve.
	if c.MigrationsPath != "" {
		absPath, err := filepath.Abs(c.MigrationsPath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationsPathInvalid, err)
		}

		c.MigrationsPath = absPath
	}

	return nil
}

// String returns a string representation of the configuration (safe for logging).
func (c *Config) String() string {
	source := "embedded"
	if c.MigrationsPath != "" {
		source = c.MigrationsPath
	}

	return fmt.Sprintf("Config{DatabaseURL: %s, Migrations: %s, MigrationTable: %s}",
		maskDatabaseURL(c.DatabaseURL), source, c.MigrationTable)
}

// maskDatabaseURL masks the password in a database URL for logging.
func maskDatabaseURL(url string) string {
	schemeEnd := -1

	for i := 0; i < len(url)-2; i++ {
		if url[i] == ':' && url[i+1] == '/' && url[i+2] == '/' {
			schemeEnd = i + 3

			break
		}
	}

	if schemeEnd == -1 {
		return url
	}

	// Last "@" before the path marks the end of userinfo (passwords may contain "@").
	atPos := -1

	for i := schemeEnd; i < len(url); i++ {
		if url[i] == '@' {
			atPos = i
		}

		if url[i] == '/' || url[i] == '?' || url[i] == '#' {
			break
		}
	}

	if atPos == -1 {
		return url
	}

	colonPos := -1

	for i := schemeEnd; i < atPos; i++ {
		if url[i] == ':' {
			colonPos = i

			break
		}
	}

	if colonPos == -1 || atPos == colonPos+1 {
		return url
	}

	return url[:colonPos+1] + "***" + url[atPos:]
}
