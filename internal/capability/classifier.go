package capability

import (
	"context"
	"strings"
)

// KeywordClassifier classifies documents by keyword heuristics. It is the
// default triage capability when no model provider is configured and the
// reference behavior the model-backed classifier is validated against.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var keywordTypes = []struct {
	documentType string
	keywords     []string
}{
	{"contract", []string{"contract", "agreement", "terms and conditions"}},
	{"policy", []string{"policy", "procedure", "guideline"}},
	{"invoice", []string{"invoice", "bill", "payment", "amount due"}},
	{"hr_form", []string{"employee", "hr", "human resources", "approval form"}},
}

// Classify matches known document-type keywords against the leading text.
// Unmatched documents classify as unknown with reduced confidence.
func (c *KeywordClassifier) Classify(_ context.Context, text string) (Classification, error) {
	lower := strings.ToLower(text)

	for _, t := range keywordTypes {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return Classification{DocumentType: t.documentType, Confidence: 0.9}, nil
			}
		}
	}

	return Classification{DocumentType: DocumentTypeUnknown, Confidence: 0.5}, nil
}
