package config

import (
	"os"
	"strconv"
	"time"
)

// override replaces *dst with v when v is non-zero. Merge and env loading
// share this so overlay semantics stay uniform across sections.
func override[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// fallback sets *dst to v only when *dst holds the zero value.
func fallback[T comparable](dst *T, v T) {
	var zero T
	if *dst == zero {
		*dst = v
	}
}

func overrideEnv(dst *string, key string) {
	override(dst, os.Getenv(key))
}

func overrideEnvInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideEnvFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// duration parses a duration string already checked during Finalize.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
