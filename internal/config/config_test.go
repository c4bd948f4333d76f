package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/compliance-sentinel/sentinel/internal/config"
	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

func TestPipelineConfigDefaults(t *testing.T) {
	var cfg config.PipelineConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.ScannerTimeout != "30s" {
		t.Errorf("ScannerTimeout = %q, want 30s", cfg.ScannerTimeout)
	}
	if cfg.JobTimeout != "10m" {
		t.Errorf("JobTimeout = %q, want 10m", cfg.JobTimeout)
	}
	if cfg.RewriteConcurrency != 4 {
		t.Errorf("RewriteConcurrency = %d, want 4", cfg.RewriteConcurrency)
	}
	if cfg.EnrichmentK != 3 {
		t.Errorf("EnrichmentK = %d, want 3", cfg.EnrichmentK)
	}
	if cfg.DriftThreshold != 0.7 {
		t.Errorf("DriftThreshold = %f, want 0.7", cfg.DriftThreshold)
	}
	if cfg.AutoFixScore != 2 || cfg.ReviewScore != 5 {
		t.Errorf("scores = %d/%d, want 2/5", cfg.AutoFixScore, cfg.ReviewScore)
	}
	if cfg.AutoFixSeverity != string(jobs.SeverityMedium) {
		t.Errorf("AutoFixSeverity = %q, want medium", cfg.AutoFixSeverity)
	}
}

func TestPipelineConfigEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvPipelineScannerTimeout, "5s")
	t.Setenv(config.EnvPipelineRewriteConcurrency, "8")
	t.Setenv(config.EnvPipelineDriftThreshold, "0.5")

	var cfg config.PipelineConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.ScannerTimeoutDuration() != 5*time.Second {
		t.Errorf("ScannerTimeoutDuration() = %v, want 5s", cfg.ScannerTimeoutDuration())
	}
	if cfg.RewriteConcurrency != 8 {
		t.Errorf("RewriteConcurrency = %d, want 8", cfg.RewriteConcurrency)
	}
	if cfg.DriftThreshold != 0.5 {
		t.Errorf("DriftThreshold = %f, want 0.5", cfg.DriftThreshold)
	}
}

func TestPipelineConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.PipelineConfig)
		wantErr string
	}{
		{
			"bad scanner timeout",
			func(c *config.PipelineConfig) { c.ScannerTimeout = "soon" },
			"invalid scanner_timeout",
		},
		{
			"bad job timeout",
			func(c *config.PipelineConfig) { c.JobTimeout = "never" },
			"invalid job_timeout",
		},
		{
			"negative concurrency",
			func(c *config.PipelineConfig) { c.RewriteConcurrency = -1 },
			"rewrite_concurrency must be positive",
		},
		{
			"drift threshold out of range",
			func(c *config.PipelineConfig) { c.DriftThreshold = 1.5 },
			"drift_threshold must be in [0, 1]",
		},
		{
			"autofix above review",
			func(c *config.PipelineConfig) {
				c.AutoFixScore = 7
				c.ReviewScore = 5
			},
			"exceeds review_score",
		},
		{
			"invalid severity",
			func(c *config.PipelineConfig) { c.AutoFixSeverity = "extreme" },
			"invalid autofix_severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.PipelineConfig
			tt.mutate(&cfg)

			err := cfg.Finalize()
			if err == nil {
				t.Fatal("Finalize() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Finalize() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPipelineConfigMerge(t *testing.T) {
	base := config.PipelineConfig{ScannerTimeout: "30s", RewriteConcurrency: 4}
	overlay := config.PipelineConfig{ScannerTimeout: "10s"}

	base.Merge(&overlay)

	if base.ScannerTimeout != "10s" {
		t.Errorf("ScannerTimeout = %q, want 10s", base.ScannerTimeout)
	}
	if base.RewriteConcurrency != 4 {
		t.Errorf("RewriteConcurrency = %d, want 4: zero overlay fields must not overwrite", base.RewriteConcurrency)
	}
}

func TestMemoryConfigDefaults(t *testing.T) {
	var cfg config.MemoryConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.EmbeddingDimension != 256 {
		t.Errorf("EmbeddingDimension = %d, want 256", cfg.EmbeddingDimension)
	}
	if cfg.EmbeddingVersion != "fnv-256-v1" {
		t.Errorf("EmbeddingVersion = %q, want fnv-256-v1", cfg.EmbeddingVersion)
	}
}

func TestMemoryConfigEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvMemoryEmbeddingDimension, "128")
	t.Setenv(config.EnvMemoryEmbeddingVersion, "fnv-128-v2")

	var cfg config.MemoryConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	rt := cfg.Runtime()
	if rt.EmbeddingDimension != 128 {
		t.Errorf("EmbeddingDimension = %d, want 128", rt.EmbeddingDimension)
	}
	if rt.EmbeddingVersion != "fnv-128-v2" {
		t.Errorf("EmbeddingVersion = %q, want fnv-128-v2", rt.EmbeddingVersion)
	}
}

func TestAgentConfigDefaults(t *testing.T) {
	var cfg config.AgentConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Provider != config.AgentProviderStub {
		t.Errorf("Provider = %q, want stub", cfg.Provider)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini", cfg.Model)
	}
	if cfg.MaxReplacement != 4096 {
		t.Errorf("MaxReplacement = %d, want 4096", cfg.MaxReplacement)
	}
}

func TestAgentConfigMaxReplacement(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv(config.EnvAgentMaxReplacement, "1024")

		var cfg config.AgentConfig
		if err := cfg.Finalize(); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg.MaxReplacement != 1024 {
			t.Errorf("MaxReplacement = %d, want 1024", cfg.MaxReplacement)
		}
	})

	t.Run("rejects non-positive", func(t *testing.T) {
		t.Setenv(config.EnvAgentMaxReplacement, "-1")

		var cfg config.AgentConfig
		err := cfg.Finalize()
		if err == nil || !strings.Contains(err.Error(), "invalid max_replacement") {
			t.Errorf("Finalize() error = %v, want invalid max_replacement", err)
		}
	})
}

func TestAgentConfigOpenAIRequiresKey(t *testing.T) {
	t.Setenv(config.EnvAgentProvider, config.AgentProviderOpenAI)
	t.Setenv(config.EnvAgentAPIKey, "")

	var cfg config.AgentConfig
	if err := cfg.Finalize(); err == nil {
		t.Fatal("Finalize() error = nil, want missing key error")
	}

	t.Setenv(config.EnvAgentAPIKey, "sk-test")
	cfg = config.AgentConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if cfg.APIKey() != "sk-test" {
		t.Errorf("APIKey() = %q, want sk-test", cfg.APIKey())
	}
}

func TestAgentConfigInvalidProvider(t *testing.T) {
	t.Setenv(config.EnvAgentProvider, "oracle")

	var cfg config.AgentConfig
	err := cfg.Finalize()
	if err == nil || !strings.Contains(err.Error(), "invalid provider") {
		t.Errorf("Finalize() error = %v, want invalid provider", err)
	}
}

func TestRetentionConfigDefaults(t *testing.T) {
	var cfg config.RetentionConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Enabled {
		t.Error("Enabled must default to false")
	}
	if cfg.Schedule != "0 3 * * *" {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if cfg.MaxAgeDuration() != 2160*time.Hour {
		t.Errorf("MaxAgeDuration() = %v, want 2160h", cfg.MaxAgeDuration())
	}
}

func TestRetentionConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.RetentionConfig)
		wantErr string
	}{
		{
			"bad schedule",
			func(c *config.RetentionConfig) { c.Schedule = "every day at dawn" },
			"invalid schedule",
		},
		{
			"bad max age",
			func(c *config.RetentionConfig) { c.MaxAge = "90 days" },
			"invalid max_age",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.RetentionConfig
			tt.mutate(&cfg)

			err := cfg.Finalize()
			if err == nil {
				t.Fatal("Finalize() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Finalize() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRetentionConfigEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvRetentionEnabled, "true")
	t.Setenv(config.EnvRetentionMaxAge, "720h")

	var cfg config.RetentionConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if !cfg.Enabled {
		t.Error("Enabled = false, want true")
	}
	if cfg.MaxAgeDuration() != 720*time.Hour {
		t.Errorf("MaxAgeDuration() = %v, want 720h", cfg.MaxAgeDuration())
	}
}
