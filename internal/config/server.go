package config

import (
	"fmt"
	"time"
)

// Environment variables overriding [server] settings.
const (
	EnvServerHost            = "SENTINEL_SERVER_HOST"
	EnvServerPort            = "SENTINEL_SERVER_PORT"
	EnvServerReadTimeout     = "SENTINEL_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "SENTINEL_SERVER_WRITE_TIMEOUT"
	EnvServerShutdownTimeout = "SENTINEL_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds the HTTP listener parameters.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return duration(c.ReadTimeout)
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return duration(c.WriteTimeout)
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Finalize applies defaults, then environment overrides, then validates.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	override(&c.Host, overlay.Host)
	override(&c.Port, overlay.Port)
	override(&c.ReadTimeout, overlay.ReadTimeout)
	override(&c.WriteTimeout, overlay.WriteTimeout)
	override(&c.ShutdownTimeout, overlay.ShutdownTimeout)
}

func (c *ServerConfig) loadDefaults() {
	fallback(&c.Host, "0.0.0.0")
	fallback(&c.Port, 8080)
	fallback(&c.ReadTimeout, "1m")
	// uploads and long audit polls share this server
	fallback(&c.WriteTimeout, "15m")
	fallback(&c.ShutdownTimeout, "30s")
}

func (c *ServerConfig) loadEnv() {
	overrideEnv(&c.Host, EnvServerHost)
	overrideEnvInt(&c.Port, EnvServerPort)
	overrideEnv(&c.ReadTimeout, EnvServerReadTimeout)
	overrideEnv(&c.WriteTimeout, EnvServerWriteTimeout)
	overrideEnv(&c.ShutdownTimeout, EnvServerShutdownTimeout)
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	timeouts := []struct{ name, value string }{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if _, err := time.ParseDuration(t.value); err != nil {
			return fmt.Errorf("invalid %s: %w", t.name, err)
		}
	}
	return nil
}
