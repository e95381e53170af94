package domain

import "time"

// PolicyConfig defines an allocation policy: a CEL expression evaluated
// against a case and a candidate agency during ROE matching. A policy that
// evaluates to false excludes the agency from the candidate list. Policies
// screen eligibility only; they never adjust match scores.
type PolicyConfig struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// CEL expression over case/agency variables, must return bool.
	Expression string `json:"expression"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
