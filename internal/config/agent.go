package config

import (
	"fmt"
	"os"
)

const (
	EnvAgentProvider = "SENTINEL_AGENT_PROVIDER"
	EnvAgentBaseURL  = "SENTINEL_AGENT_BASE_URL"
	EnvAgentAPIKey   = "SENTINEL_AGENT_API_KEY"
	EnvAgentModel    = "SENTINEL_AGENT_MODEL"

	EnvAgentMaxReplacement = "SENTINEL_AGENT_MAX_REPLACEMENT"
)

// defaultMaxReplacement caps rewrite replacement text at 4 KiB.
const defaultMaxReplacement = 4096

// Agent providers. The stub provider needs no credentials and produces
// deterministic suggestions; openai routes classification and rewrites
// through the OpenAI chat completions API.
const (
	AgentProviderStub   = "stub"
	AgentProviderOpenAI = "openai"
)

// AgentConfig holds the language-capability provider settings. APIKey is
// never read from TOML; it only enters through the environment.
type AgentConfig struct {
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`

	// MaxReplacement is the byte limit on rewrite replacement text; oversized
	// model output is rejected.
	MaxReplacement int `toml:"max_replacement"`

	apiKey string
}

// APIKey returns the environment-supplied API key.
func (c *AgentConfig) APIKey() string {
	return c.apiKey
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	override(&c.Provider, overlay.Provider)
	override(&c.BaseURL, overlay.BaseURL)
	override(&c.Model, overlay.Model)
	override(&c.MaxReplacement, overlay.MaxReplacement)
}

func (c *AgentConfig) loadDefaults() {
	fallback(&c.Provider, AgentProviderStub)
	fallback(&c.Model, "gpt-4o-mini")
	fallback(&c.MaxReplacement, defaultMaxReplacement)
}

func (c *AgentConfig) loadEnv() {
	overrideEnv(&c.Provider, EnvAgentProvider)
	overrideEnv(&c.BaseURL, EnvAgentBaseURL)
	overrideEnv(&c.Model, EnvAgentModel)
	overrideEnvInt(&c.MaxReplacement, EnvAgentMaxReplacement)
	c.apiKey = os.Getenv(EnvAgentAPIKey)
}

func (c *AgentConfig) validate() error {
	if c.MaxReplacement <= 0 {
		return fmt.Errorf("invalid max_replacement: %d", c.MaxReplacement)
	}

	switch c.Provider {
	case AgentProviderStub:
		return nil
	case AgentProviderOpenAI:
		if c.apiKey == "" {
			return fmt.Errorf("%s required for openai provider", EnvAgentAPIKey)
		}
		return nil
	default:
		return fmt.Errorf("invalid provider: %s", c.Provider)
	}
}
