package api

import (
	"github.com/compliance-sentinel/sentinel/internal/audits"
	"github.com/compliance-sentinel/sentinel/internal/capability"
	"github.com/compliance-sentinel/sentinel/internal/config"
	"github.com/compliance-sentinel/sentinel/internal/documents"
	"github.com/compliance-sentinel/sentinel/internal/memorybank"
	"github.com/compliance-sentinel/sentinel/internal/pipeline"
	"github.com/compliance-sentinel/sentinel/internal/policies"
	"github.com/compliance-sentinel/sentinel/internal/scanners"
	"github.com/compliance-sentinel/sentinel/pkg/lifecycle"
)

// Domain bundles the systems the API module serves.
type Domain struct {
	Audits    audits.System
	Documents documents.System
	Policies  policies.System
	Memory    memorybank.System
	Embedder  capability.Embedder
}

// NewDomain creates all domain systems from the API runtime: the document
// and policy repositories, the Memory Bank over its PostgreSQL store, the
// scanner set, and the audit system wrapping the pipeline.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	docsSystem := documents.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	policiesSystem := policies.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	memorySystem := memorybank.New(
		memorybank.NewPostgresStore(db),
		policiesSystem,
		cfg.Memory.Runtime(),
		runtime.Logger,
		nil, nil,
	)

	embedder := capability.NewHashingEmbedder(
		cfg.Memory.EmbeddingDimension,
		cfg.Memory.EmbeddingVersion,
	)

	classifier, rewriter := buildAgent(cfg, runtime)

	rt := &pipeline.Runtime{
		Scanners: []scanners.Scanner{
			scanners.NewPIIScanner(),
			scanners.NewPolicyRuleEngine(scanners.DefaultRules()),
			scanners.NewTemplateDetector(memorySystem, embedder, cfg.Pipeline.DriftThreshold),
			scanners.NewSignatureChecker(),
		},
		Memory:     memorySystem,
		Classifier: classifier,
		Rewriter:   rewriter,
		Redactor:   scanners.NewRedactor(),
		Embedder:   embedder,
		Logger:     runtime.Logger.With("system", "pipeline"),
		Config:     cfg.Pipeline.Runtime(),
	}

	auditsSystem := audits.New(
		db,
		rt,
		docsSystem,
		runtime.Storage,
		cfg.Pipeline.JobTimeoutDuration(),
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Audits:    auditsSystem,
		Documents: docsSystem,
		Policies:  policiesSystem,
		Memory:    memorySystem,
		Embedder:  embedder,
	}
}

// Start registers domain systems that participate in lifecycle coordination.
func (d *Domain) Start(lc *lifecycle.Coordinator) error {
	return d.Memory.Start(lc)
}

// buildAgent selects the language-capability provider. The stub pairing is
// fully deterministic; openai routes classification and rewrites through
// the chat completions API.
func buildAgent(cfg *config.Config, runtime *Runtime) (capability.Classifier, capability.Rewriter) {
	if cfg.Agent.Provider == config.AgentProviderOpenAI {
		client := capability.NewOpenAIClient(
			cfg.Agent.APIKey(),
			cfg.Agent.BaseURL,
			cfg.Agent.Model,
			cfg.Agent.MaxReplacement,
			runtime.Logger,
		)
		return client, client
	}

	return capability.NewKeywordClassifier(), capability.NewStubRewriter()
}
