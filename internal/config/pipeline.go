package config

import (
	"fmt"
	"time"

	"github.com/compliance-sentinel/sentinel/internal/approval"
	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/internal/pipeline"
)

const (
	EnvPipelineScannerTimeout      = "SENTINEL_PIPELINE_SCANNER_TIMEOUT"
	EnvPipelineJobTimeout          = "SENTINEL_PIPELINE_JOB_TIMEOUT"
	EnvPipelineRewriteConcurrency  = "SENTINEL_PIPELINE_REWRITE_CONCURRENCY"
	EnvPipelineEnrichmentK         = "SENTINEL_PIPELINE_ENRICHMENT_K"
	EnvPipelineClassifySampleChars = "SENTINEL_PIPELINE_CLASSIFY_SAMPLE_CHARS"
	EnvPipelineDriftThreshold      = "SENTINEL_PIPELINE_DRIFT_THRESHOLD"
	EnvPipelineAutoFixScore        = "SENTINEL_PIPELINE_AUTOFIX_SCORE"
	EnvPipelineReviewScore         = "SENTINEL_PIPELINE_REVIEW_SCORE"
	EnvPipelineAutoFixSeverity     = "SENTINEL_PIPELINE_AUTOFIX_SEVERITY"
)

// PipelineConfig holds orchestrator tunables: stage timeouts, fan-out
// bounds, and decision thresholds.
type PipelineConfig struct {
	ScannerTimeout      string  `toml:"scanner_timeout"`
	JobTimeout          string  `toml:"job_timeout"`
	RewriteConcurrency  int     `toml:"rewrite_concurrency"`
	EnrichmentK         int     `toml:"enrichment_k"`
	ClassifySampleChars int     `toml:"classify_sample_chars"`
	DriftThreshold      float64 `toml:"drift_threshold"`
	AutoFixScore        int     `toml:"autofix_score"`
	ReviewScore         int     `toml:"review_score"`
	AutoFixSeverity     string  `toml:"autofix_severity"`
}

// ScannerTimeoutDuration returns ScannerTimeout as a time.Duration.
func (c *PipelineConfig) ScannerTimeoutDuration() time.Duration {
	return duration(c.ScannerTimeout)
}

// JobTimeoutDuration returns JobTimeout as a time.Duration.
func (c *PipelineConfig) JobTimeoutDuration() time.Duration {
	return duration(c.JobTimeout)
}

// Runtime converts the finalized config into the pipeline's Config.
func (c *PipelineConfig) Runtime() pipeline.Config {
	return pipeline.Config{
		ScannerTimeout:      c.ScannerTimeoutDuration(),
		RewriteConcurrency:  c.RewriteConcurrency,
		EnrichmentK:         c.EnrichmentK,
		ClassifySampleChars: c.ClassifySampleChars,
		Approval: approval.Config{
			AutoFixScore:    c.AutoFixScore,
			ReviewScore:     c.ReviewScore,
			AutoFixSeverity: jobs.Severity(c.AutoFixSeverity),
		},
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	override(&c.ScannerTimeout, overlay.ScannerTimeout)
	override(&c.JobTimeout, overlay.JobTimeout)
	override(&c.RewriteConcurrency, overlay.RewriteConcurrency)
	override(&c.EnrichmentK, overlay.EnrichmentK)
	override(&c.ClassifySampleChars, overlay.ClassifySampleChars)
	override(&c.DriftThreshold, overlay.DriftThreshold)
	override(&c.AutoFixScore, overlay.AutoFixScore)
	override(&c.ReviewScore, overlay.ReviewScore)
	override(&c.AutoFixSeverity, overlay.AutoFixSeverity)
}

func (c *PipelineConfig) loadDefaults() {
	fallback(&c.ScannerTimeout, "30s")
	fallback(&c.JobTimeout, "10m")
	fallback(&c.RewriteConcurrency, 4)
	fallback(&c.EnrichmentK, 3)
	fallback(&c.ClassifySampleChars, 1000)
	fallback(&c.DriftThreshold, 0.7)
	fallback(&c.AutoFixScore, 2)
	fallback(&c.ReviewScore, 5)
	fallback(&c.AutoFixSeverity, string(jobs.SeverityMedium))
}

func (c *PipelineConfig) loadEnv() {
	overrideEnv(&c.ScannerTimeout, EnvPipelineScannerTimeout)
	overrideEnv(&c.JobTimeout, EnvPipelineJobTimeout)
	overrideEnvInt(&c.RewriteConcurrency, EnvPipelineRewriteConcurrency)
	overrideEnvInt(&c.EnrichmentK, EnvPipelineEnrichmentK)
	overrideEnvInt(&c.ClassifySampleChars, EnvPipelineClassifySampleChars)
	overrideEnvFloat(&c.DriftThreshold, EnvPipelineDriftThreshold)
	overrideEnvInt(&c.AutoFixScore, EnvPipelineAutoFixScore)
	overrideEnvInt(&c.ReviewScore, EnvPipelineReviewScore)
	overrideEnv(&c.AutoFixSeverity, EnvPipelineAutoFixSeverity)
}

func (c *PipelineConfig) validate() error {
	if _, err := time.ParseDuration(c.ScannerTimeout); err != nil {
		return fmt.Errorf("invalid scanner_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.JobTimeout); err != nil {
		return fmt.Errorf("invalid job_timeout: %w", err)
	}
	if c.RewriteConcurrency < 1 {
		return fmt.Errorf("rewrite_concurrency must be positive: %d", c.RewriteConcurrency)
	}
	if c.EnrichmentK < 1 {
		return fmt.Errorf("enrichment_k must be positive: %d", c.EnrichmentK)
	}
	if c.DriftThreshold < 0 || c.DriftThreshold > 1 {
		return fmt.Errorf("drift_threshold must be in [0, 1]: %f", c.DriftThreshold)
	}
	if c.AutoFixScore > c.ReviewScore {
		return fmt.Errorf(
			"autofix_score %d exceeds review_score %d",
			c.AutoFixScore, c.ReviewScore,
		)
	}
	if !jobs.Severity(c.AutoFixSeverity).Valid() {
		return fmt.Errorf("invalid autofix_severity: %s", c.AutoFixSeverity)
	}
	return nil
}
