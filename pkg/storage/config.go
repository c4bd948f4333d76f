package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds Azure Blob Storage connection parameters.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	MaxListSize      int32  `toml:"max_list_size"`
}

// Env names the environment variables that override each Config field.
type Env struct {
	ContainerName    string
	ConnectionString string
	MaxListSize      string
}

// Finalize applies defaults, then environment overrides, then validates.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if v := overlay.ContainerName; v != "" {
		c.ContainerName = v
	}
	if v := overlay.ConnectionString; v != "" {
		c.ConnectionString = v
	}
	if v := overlay.MaxListSize; v != 0 {
		c.MaxListSize = v
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "documents"
	}
	if c.MaxListSize == 0 {
		c.MaxListSize = 50
	}
	c.MaxListSize = min(c.MaxListSize, MaxListCap)
}

func (c *Config) loadEnv(env *Env) {
	if v := envValue(env.ContainerName); v != "" {
		c.ContainerName = v
	}
	if v := envValue(env.ConnectionString); v != "" {
		c.ConnectionString = v
	}
	if v := envValue(env.MaxListSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxListSize = min(int32(n), MaxListCap)
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.ConnectionString == "" {
		return fmt.Errorf("connection_string required")
	}
	return nil
}

// envValue looks up the named environment variable, tolerating a blank name.
func envValue(key string) string {
	if key == "" {
		return ""
	}
	return os.Getenv(key)
}
