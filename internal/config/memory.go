package config

import (
	"fmt"

	"github.com/compliance-sentinel/sentinel/internal/memorybank"
)

const (
	EnvMemoryEmbeddingDimension = "SENTINEL_MEMORY_EMBEDDING_DIMENSION"
	EnvMemoryEmbeddingVersion   = "SENTINEL_MEMORY_EMBEDDING_VERSION"
)

// MemoryConfig holds Memory Bank embedding parameters. Dimension and version
// gate which stored embeddings are loaded into the similarity index.
type MemoryConfig struct {
	EmbeddingDimension int    `toml:"embedding_dimension"`
	EmbeddingVersion   string `toml:"embedding_version"`
}

// Runtime converts the finalized config into the Memory Bank's Config.
func (c *MemoryConfig) Runtime() memorybank.Config {
	return memorybank.Config{
		EmbeddingDimension: c.EmbeddingDimension,
		EmbeddingVersion:   c.EmbeddingVersion,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *MemoryConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *MemoryConfig) Merge(overlay *MemoryConfig) {
	override(&c.EmbeddingDimension, overlay.EmbeddingDimension)
	override(&c.EmbeddingVersion, overlay.EmbeddingVersion)
}

func (c *MemoryConfig) loadDefaults() {
	fallback(&c.EmbeddingDimension, 256)
	fallback(&c.EmbeddingVersion, "fnv-256-v1")
}

func (c *MemoryConfig) loadEnv() {
	overrideEnvInt(&c.EmbeddingDimension, EnvMemoryEmbeddingDimension)
	overrideEnv(&c.EmbeddingVersion, EnvMemoryEmbeddingVersion)
}

func (c *MemoryConfig) validate() error {
	if c.EmbeddingDimension < 1 {
		return fmt.Errorf("embedding_dimension must be positive: %d", c.EmbeddingDimension)
	}
	return nil
}
