package config

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	EnvRetentionEnabled  = "SENTINEL_RETENTION_ENABLED"
	EnvRetentionSchedule = "SENTINEL_RETENTION_SCHEDULE"
	EnvRetentionMaxAge   = "SENTINEL_RETENTION_MAX_AGE"
)

// RetentionConfig controls the scheduled pruning of terminal audit records.
type RetentionConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
	MaxAge   string `toml:"max_age"`
}

// MaxAgeDuration returns MaxAge as a time.Duration.
func (c *RetentionConfig) MaxAgeDuration() time.Duration {
	return duration(c.MaxAge)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RetentionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RetentionConfig) Merge(overlay *RetentionConfig) {
	if overlay.Enabled {
		c.Enabled = true
	}
	override(&c.Schedule, overlay.Schedule)
	override(&c.MaxAge, overlay.MaxAge)
}

func (c *RetentionConfig) loadDefaults() {
	fallback(&c.Schedule, "0 3 * * *")
	fallback(&c.MaxAge, "2160h")
}

func (c *RetentionConfig) loadEnv() {
	if v := os.Getenv(EnvRetentionEnabled); v != "" {
		c.Enabled = v == "true"
	}
	overrideEnv(&c.Schedule, EnvRetentionSchedule)
	overrideEnv(&c.MaxAge, EnvRetentionMaxAge)
}

func (c *RetentionConfig) validate() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	if _, err := time.ParseDuration(c.MaxAge); err != nil {
		return fmt.Errorf("invalid max_age: %w", err)
	}
	return nil
}
