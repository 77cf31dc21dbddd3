package config

import (
	"fmt"

	"github.com/kilianp07/socsim/infra/logger"
)

// LoggingConfig selects the log backend, level and optional rotated file.
type LoggingConfig struct {
	// Backend selects the logger implementation: "zerolog" or "logrus".
	Backend string `json:"backend"`
	Level   string `json:"level"`
	// Console writes human readable lines instead of JSON.
	Console bool `json:"console"`
	// File redirects logs to a rotated file.
	File string `json:"file"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "zerolog"
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.File != "" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Backend {
	case "", "zerolog", "logrus":
	default:
		return fmt.Errorf("unknown log backend %s", c.Backend)
	}
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
	return nil
}

// Options converts the section into logger options.
func (c LoggingConfig) Options() logger.Options {
	return logger.Options{
		Backend:    c.Backend,
		Level:      c.Level,
		Console:    c.Console,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
