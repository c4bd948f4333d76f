package scanners

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

// KindPII marks violations produced by the PII scanner.
const KindPII = "pii"

type piiPattern struct {
	piiType  string
	pattern  *regexp.Regexp
	severity jobs.Severity
}

// SSNs and credit card numbers are directly exploitable; everything else is
// contact or account data.
var piiPatterns = []piiPattern{
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), jobs.SeverityMedium},
	{"phone", regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`), jobs.SeverityMedium},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), jobs.SeverityHigh},
	{"credit_card", regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), jobs.SeverityHigh},
	{"iban", regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{4,30}\b`), jobs.SeverityMedium},
	{"account_number", regexp.MustCompile(`\b\d{8,12}\b`), jobs.SeverityMedium},
}

const regexConfidence = 0.95

// PIIScanner detects personally identifiable information with regex patterns.
type PIIScanner struct{}

// NewPIIScanner creates a PII scanner.
func NewPIIScanner() *PIIScanner {
	return &PIIScanner{}
}

func (s *PIIScanner) Name() string {
	return "pii_scanner"
}

// Scan matches every PII pattern against every chunk.
func (s *PIIScanner) Scan(ctx context.Context, chunks []jobs.Chunk, _ Context) ([]jobs.Violation, error) {
	violations := make([]jobs.Violation, 0)

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, p := range piiPatterns {
			for _, loc := range p.pattern.FindAllStringIndex(chunk.Text, -1) {
				violations = append(violations, jobs.Violation{
					ID:         uuid.New(),
					Scanner:    s.Name(),
					Kind:       KindPII,
					RuleID:     p.piiType,
					Severity:   p.severity,
					Confidence: regexConfidence,
					Location: jobs.Location{
						Chunk: chunk.Index,
						Start: loc[0],
						End:   loc[1],
					},
					Evidence: chunk.Text[loc[0]:loc[1]],
					Message:  fmt.Sprintf("Detected %s", p.piiType),
				})
			}
		}
	}

	sortViolations(violations)
	return violations, nil
}

// Redactor replaces PII spans with hash-stamped placeholders. It implements
// the redaction capability applied to all text bound for external calls.
type Redactor struct{}

// NewRedactor creates a PII redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// Redact replaces every PII pattern match in text with a [REDACTED_xxxxxxxx]
// placeholder stamped with the first 8 hex chars of the span's SHA-256, so
// identical values redact identically without being recoverable.
func (r *Redactor) Redact(text string) string {
	for _, p := range piiPatterns {
		text = p.pattern.ReplaceAllStringFunc(text, func(match string) string {
			sum := sha256.Sum256([]byte(match))
			return "[REDACTED_" + hex.EncodeToString(sum[:4]) + "]"
		})
	}
	return text
}
