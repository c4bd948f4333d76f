// Package policies implements the policy snippet domain: the rule-indexed
// compliance text attached to violations during enrichment and cited by
// rewrite suggestions. It provides types, data access, and HTTP handlers,
// and implements the Memory Bank's policy lookup.
package policies

import (
	"time"

	"github.com/google/uuid"
)

// Policy is one stored policy snippet. PolicyID is the rule-facing key
// (e.g. CONTRACT_001); an empty DocumentTypes list means the policy applies
// to every document type.
type Policy struct {
	ID            uuid.UUID `json:"id"`
	PolicyID      string    `json:"policy_id"`
	Name          string    `json:"name"`
	Text          string    `json:"text"`
	DocumentTypes []string  `json:"document_types"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to create a policy snippet.
type CreateCommand struct {
	PolicyID      string   `json:"policy_id"`
	Name          string   `json:"name"`
	Text          string   `json:"text"`
	DocumentTypes []string `json:"document_types"`
}

// UpdateCommand carries the data needed to update a policy snippet.
type UpdateCommand struct {
	Name          string   `json:"name"`
	Text          string   `json:"text"`
	DocumentTypes []string `json:"document_types"`
}
