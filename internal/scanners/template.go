package scanners

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/capability"
	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/internal/memorybank"
)

// Violation kinds produced by the template detector.
const (
	KindTemplateDrift        = "template_drift"
	KindInsufficientTemplate = "insufficient_template_data"
)

// Chunks shorter than this carry too little signal to compare against
// templates.
const minDriftChunkLen = 50

// TemplateDetector flags chunks that drift from canonical templates. A chunk
// whose best template match scores below the threshold is drift; a chunk
// with no template to compare against is an insufficient-data finding, never
// a silent pass.
type TemplateDetector struct {
	memory    memorybank.System
	embedder  capability.Embedder
	threshold float64
}

// NewTemplateDetector creates a detector over the given Memory Bank.
// threshold is the similarity below which a chunk is flagged (default 0.7 at
// the configuration layer).
func NewTemplateDetector(
	memory memorybank.System,
	embedder capability.Embedder,
	threshold float64,
) *TemplateDetector {
	return &TemplateDetector{
		memory:    memory,
		embedder:  embedder,
		threshold: threshold,
	}
}

func (s *TemplateDetector) Name() string {
	return "template_detector"
}

// Scan compares each substantial chunk against its best-matching template.
func (s *TemplateDetector) Scan(ctx context.Context, chunks []jobs.Chunk, _ Context) ([]jobs.Violation, error) {
	violations := make([]jobs.Violation, 0)

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(chunk.Text) < minDriftChunkLen {
			continue
		}

		embedding := s.embedder.Embed(chunk.Text)
		matches, err := s.memory.FindSimilarTemplates(ctx, embedding, 1)
		if err != nil {
			return nil, fmt.Errorf("template lookup for chunk %d: %w", chunk.Index, err)
		}

		if len(matches) == 0 {
			violations = append(violations, jobs.Violation{
				ID:         uuid.New(),
				Scanner:    s.Name(),
				Kind:       KindInsufficientTemplate,
				Severity:   jobs.SeverityLow,
				Confidence: 1.0,
				Location: jobs.Location{
					Chunk: chunk.Index,
					Start: 0,
					End:   len(chunk.Text),
				},
				Message: "No matching template found",
			})
			continue
		}

		similarity := matches[0].Score
		if similarity >= s.threshold {
			continue
		}

		severity := jobs.SeverityHigh
		if similarity > 0.5 {
			severity = jobs.SeverityMedium
		}

		confidence := 1.0 - similarity
		if confidence > 1.0 {
			confidence = 1.0
		}

		violations = append(violations, jobs.Violation{
			ID:         uuid.New(),
			Scanner:    s.Name(),
			Kind:       KindTemplateDrift,
			Severity:   severity,
			Confidence: confidence,
			Location: jobs.Location{
				Chunk: chunk.Index,
				Start: 0,
				End:   len(chunk.Text),
			},
			Message: fmt.Sprintf(
				"Chunk deviates from template (similarity: %.2f, threshold: %.2f)",
				similarity, s.threshold,
			),
		})
	}

	sortViolations(violations)
	return violations, nil
}
