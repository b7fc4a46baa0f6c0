// Package config loads markerd's runtime configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for every field
//  2. Config File: optional YAML config file
//  3. Environment Variables: override any setting, highest priority
package config

import "fmt"

// Config holds every setting the core consumes (spec §6). Unlike the
// teacher's multi-data-source config, this service owns exactly one
// attached library database and one side database, so the struct stays
// flat rather than nesting per-source blocks.
type Config struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// DatabasePath is the foreign library database this service attaches
	// to as a read/write catalog (internal/library).
	DatabasePath string `koanf:"database_path"`

	// MetadataPath is the directory for this service's own side database,
	// the action log (internal/actionlog).
	MetadataPath string `koanf:"metadata_path"`

	LogLevel string `koanf:"log_level"`

	// PreviewThumbnails and AutoOpen are external-surface toggles (the UI
	// and preview-thumbnail extraction are out of scope) kept here only
	// because they round-trip through the same config object.
	PreviewThumbnails bool `koanf:"preview_thumbnails"`
	AutoOpen          bool `koanf:"auto_open"`

	// BackupActions enables the Action Log and Purge Reconciler; when
	// false, every purge operation fails with ErrFeatureDisabled.
	BackupActions bool `koanf:"backup_actions"`

	// ExtendedMarkerStats enables the Marker Cache; when false, get_stats
	// falls back to a live scan and some purge features degrade.
	ExtendedMarkerStats bool `koanf:"extended_marker_stats"`
}

// Validate checks the loaded configuration for internally inconsistent or
// missing required values.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.BackupActions && c.MetadataPath == "" {
		return fmt.Errorf("metadata_path is required when backup_actions is enabled")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.LogLevel {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Host:                "127.0.0.1",
		Port:                8080,
		DatabasePath:        "",
		MetadataPath:        "/data/markerd",
		LogLevel:            "info",
		PreviewThumbnails:   true,
		AutoOpen:            false,
		BackupActions:       true,
		ExtendedMarkerStats: true,
	}
}
