package scanners

import (
	"slices"
	"strings"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

// Rule is one deterministic compliance policy check. Check receives the full
// document text and returns findings; the engine stamps rule identity and
// severity onto each.
type Rule struct {
	ID            string
	Name          string
	Description   string
	Severity      jobs.Severity
	DocumentTypes []string
	Check         func(text string) []Finding
}

// Finding is a raw rule check result before violation assembly.
type Finding struct {
	Message string
}

// AppliesTo reports whether the rule covers the given document type.
func (r Rule) AppliesTo(documentType string) bool {
	return slices.Contains(r.DocumentTypes, documentType) ||
		slices.Contains(r.DocumentTypes, "all")
}

// DefaultRules returns the built-in policy rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:            "CONTRACT_001",
			Name:          "Contract Termination Clause",
			Description:   "Contracts must include a termination clause",
			Severity:      jobs.SeverityHigh,
			DocumentTypes: []string{"contract", "agreement"},
			Check:         checkTerminationClause,
		},
		{
			ID:            "HR_001",
			Name:          "HR Manager Approval",
			Description:   "HR forms must include manager approval field",
			Severity:      jobs.SeverityMedium,
			DocumentTypes: []string{"hr_form", "hr_document"},
			Check:         checkManagerApproval,
		},
		{
			ID:            "POLICY_001",
			Name:          "Policy Version",
			Description:   "Policy documents must include a version number",
			Severity:      jobs.SeverityMedium,
			DocumentTypes: []string{"policy", "policy_document"},
			Check:         checkPolicyVersion,
		},
		{
			ID:            "POLICY_002",
			Name:          "Policy Effective Date",
			Description:   "Policy documents must include an effective date",
			Severity:      jobs.SeverityMedium,
			DocumentTypes: []string{"policy", "policy_document"},
			Check:         checkPolicyDate,
		},
		{
			ID:            "INVOICE_001",
			Name:          "Invoice Tax ID",
			Description:   "Invoices must include a tax identification number",
			Severity:      jobs.SeverityHigh,
			DocumentTypes: []string{"invoice", "bill"},
			Check:         checkInvoiceTaxID,
		},
	}
}

func containsAny(lower string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func checkTerminationClause(text string) []Finding {
	lower := strings.ToLower(text)
	if containsAny(lower, "termination", "terminate", "end of agreement", "contract end") {
		return nil
	}
	return []Finding{{Message: "Contract missing termination clause"}}
}

func checkManagerApproval(text string) []Finding {
	lower := strings.ToLower(text)
	if containsAny(lower, "manager approval", "approved by", "signature", "manager sign") {
		return nil
	}
	return []Finding{{Message: "HR form missing manager approval field"}}
}

func checkPolicyVersion(text string) []Finding {
	lower := strings.ToLower(text)
	if containsAny(lower, "version", "v.", "v ") {
		return nil
	}
	return []Finding{{Message: "Policy document missing version number"}}
}

func checkPolicyDate(text string) []Finding {
	lower := strings.ToLower(text)
	if containsAny(lower, "effective date", "date:", "dated", "as of") {
		return nil
	}
	return []Finding{{Message: "Policy document missing effective date"}}
}

func checkInvoiceTaxID(text string) []Finding {
	lower := strings.ToLower(text)
	if containsAny(lower, "tax id", "tax identification", "tin", "ein", "vat") {
		return nil
	}
	return []Finding{{Message: "Invoice missing tax identification number"}}
}
