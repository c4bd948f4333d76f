// Package config loads and finalizes the service configuration: a base TOML
// file, an optional environment overlay, and environment variable overrides,
// in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/compliance-sentinel/sentinel/pkg/database"
	"github.com/compliance-sentinel/sentinel/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSentinelEnv             = "SENTINEL_ENV"
	EnvSentinelShutdownTimeout = "SENTINEL_SHUTDOWN_TIMEOUT"
	EnvSentinelVersion         = "SENTINEL_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "SENTINEL_DB_HOST",
	Port:            "SENTINEL_DB_PORT",
	Name:            "SENTINEL_DB_NAME",
	User:            "SENTINEL_DB_USER",
	Password:        "SENTINEL_DB_PASSWORD",
	SSLMode:         "SENTINEL_DB_SSL_MODE",
	MaxOpenConns:    "SENTINEL_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SENTINEL_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SENTINEL_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SENTINEL_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "SENTINEL_STORAGE_CONTAINER_NAME",
	ConnectionString: "SENTINEL_STORAGE_CONNECTION_STRING",
}

// Config is the root configuration for the Sentinel service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	Memory          MemoryConfig    `toml:"memory"`
	Agent           AgentConfig     `toml:"agent"`
	Retention       RetentionConfig `toml:"retention"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SENTINEL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSentinelEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load reads the base config if one exists, layers any environment overlay
// on top, and finalizes every section. A missing config.toml is not an
// error; defaults and environment variables then supply all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sections.
func (c *Config) Merge(overlay *Config) {
	override(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	override(&c.Version, overlay.Version)

	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Memory.Merge(&overlay.Memory)
	c.Agent.Merge(&overlay.Agent)
	c.Retention.Merge(&overlay.Retention)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"pipeline", c.Pipeline.Finalize},
		{"memory", c.Memory.Finalize},
		{"agent", c.Agent.Finalize},
		{"retention", c.Retention.Finalize},
	}
	for _, s := range sections {
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	fallback(&c.ShutdownTimeout, "30s")
	fallback(&c.Version, "0.1.0")
}

func (c *Config) loadEnv() {
	overrideEnv(&c.ShutdownTimeout, EnvSentinelShutdownTimeout)
	overrideEnv(&c.Version, EnvSentinelVersion)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func overlayPath() string {
	env := os.Getenv(EnvSentinelEnv)
	if env == "" {
		return ""
	}
	path := fmt.Sprintf(OverlayConfigPattern, env)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
