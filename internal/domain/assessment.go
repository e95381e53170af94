package domain

import "time"

// AssessmentKind identifies which scorer produced an assessment.
const (
	AssessmentPriority = "priority"
	AssessmentRecovery = "recovery"
	AssessmentROE      = "roe"
	AssessmentAnalysis = "analysis"
)

// Assessment is a persisted scoring result. The payload is the full result
// record serialized as JSON, so historical responses can be replayed without
// re-running the scorers against drifted inputs.
type Assessment struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Kind      string    `json:"kind"`
	CaseID    string    `json:"caseId,omitempty"`
	AgencyID  string    `json:"agencyId,omitempty"`
	Score     float64   `json:"score"`
	Payload   []byte    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// AssessmentMetadata carries processing information on API responses.
// AssessmentID is the stored record behind GET /assessments/{id}; empty when
// persistence was unavailable.
type AssessmentMetadata struct {
	TraceID       string `json:"traceId"`
	AssessmentID  string `json:"assessmentId,omitempty"`
	ProcessMs     int64  `json:"processMs"`
	EngineVersion string `json:"engineVersion"`
}
