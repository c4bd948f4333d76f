package scanners

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

// KindMissingSignature marks violations produced by the signature checker.
const KindMissingSignature = "missing_signature"

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)signed\s+by`),
	regexp.MustCompile(`(?i)signature`),
	regexp.MustCompile(`(?i)approved\s+by`),
	regexp.MustCompile(`(?i)authorized\s+signature`),
}

var signatureRequiredTypes = []string{"contract", "hr_form", "agreement", "policy"}

// SignatureChecker verifies that document types requiring a signature or
// approval field actually contain one.
type SignatureChecker struct{}

// NewSignatureChecker creates a signature checker.
func NewSignatureChecker() *SignatureChecker {
	return &SignatureChecker{}
}

func (s *SignatureChecker) Name() string {
	return "signature_checker"
}

// Scan searches every chunk for signature markers; when the document type
// requires a signature and none is found, it reports a single high-severity
// violation spanning the document.
func (s *SignatureChecker) Scan(ctx context.Context, chunks []jobs.Chunk, sc Context) ([]jobs.Violation, error) {
	found := false

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, pattern := range signaturePatterns {
			if pattern.MatchString(chunk.Text) {
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	if found || !slices.Contains(signatureRequiredTypes, sc.DocumentType) {
		return []jobs.Violation{}, nil
	}

	end := 0
	if len(chunks) > 0 {
		end = len(chunks[len(chunks)-1].Text)
	}

	return []jobs.Violation{{
		ID:         uuid.New(),
		Scanner:    s.Name(),
		Kind:       KindMissingSignature,
		Severity:   jobs.SeverityHigh,
		Confidence: 1.0,
		Location: jobs.Location{
			Chunk: max(len(chunks)-1, 0),
			Start: 0,
			End:   end,
		},
		Message: fmt.Sprintf("%s document missing required signature/approval", sc.DocumentType),
	}}, nil
}
