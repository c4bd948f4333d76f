package config

import (
	"fmt"

	"github.com/compliance-sentinel/sentinel/pkg/formatting"
	"github.com/compliance-sentinel/sentinel/pkg/middleware"
	"github.com/compliance-sentinel/sentinel/pkg/pagination"
)

// Environment variables overriding [api] settings.
const (
	EnvAPIBasePath      = "SENTINEL_API_BASE_PATH"
	EnvAPIMaxUploadSize = "SENTINEL_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SENTINEL_CORS_ENABLED",
	Origins:          "SENTINEL_CORS_ORIGINS",
	AllowedMethods:   "SENTINEL_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SENTINEL_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SENTINEL_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SENTINEL_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SENTINEL_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SENTINEL_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API mount path, upload limits, CORS, and pagination
// settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

const defaultMaxUploadSize = "50MB"

// MaxUploadSizeBytes parses MaxUploadSize into a byte count. An unparseable
// value falls back to the default limit rather than failing a request path.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		size, _ = formatting.ParseBytes(defaultMaxUploadSize)
	}
	return size
}

// Finalize applies defaults and environment overrides, then finalizes the
// nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	override(&c.BasePath, overlay.BasePath)
	override(&c.MaxUploadSize, overlay.MaxUploadSize)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	fallback(&c.BasePath, "/api")
	fallback(&c.MaxUploadSize, defaultMaxUploadSize)
}

func (c *APIConfig) loadEnv() {
	overrideEnv(&c.BasePath, EnvAPIBasePath)
	overrideEnv(&c.MaxUploadSize, EnvAPIMaxUploadSize)
}
