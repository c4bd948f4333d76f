package policies

import (
	"encoding/json"
	"net/url"

	"github.com/compliance-sentinel/sentinel/pkg/query"
	"github.com/compliance-sentinel/sentinel/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "policies", "p").
	Project("id", "ID").
	Project("policy_id", "PolicyID").
	Project("name", "Name").
	Project("text", "Text").
	Project("document_types", "DocumentTypes").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "PolicyID",
}

// Filters contains optional filtering criteria for policy queries.
// Nil fields are ignored. PolicyID uses exact matching.
// Name uses case-insensitive contains matching.
type Filters struct {
	PolicyID *string `json:"policy_id,omitempty"`
	Name     *string `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("PolicyID", f.PolicyID).
		WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("policy_id"); p != "" {
		f.PolicyID = &p
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	return f
}

func scanPolicy(s repository.Scanner) (Policy, error) {
	var p Policy
	var docTypes []byte

	err := s.Scan(
		&p.ID,
		&p.PolicyID,
		&p.Name,
		&p.Text,
		&docTypes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	if err := json.Unmarshal(docTypes, &p.DocumentTypes); err != nil {
		return p, err
	}

	return p, nil
}
