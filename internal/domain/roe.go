package domain

// AgencyMatch scores one candidate agency against a case. Reasons are listed
// in the order the matching rules fired.
type AgencyMatch struct {
	AgencyID             string   `json:"agencyId"`
	AgencyName           string   `json:"agencyName"`
	MatchScore           float64  `json:"matchScore"`
	MatchReasons         []string `json:"matchReasons"`
	ExpectedRecoveryRate float64  `json:"expectedRecoveryRate"` // percentage
	DataSource           string   `json:"dataSource"`
}

// ActionItem is one recommended collection action.
type ActionItem struct {
	Action         string `json:"action"`
	Priority       string `json:"priority"`
	Timeline       string `json:"timeline"`
	ExpectedImpact string `json:"expectedImpact"`
}

// ROEResult is the output of the return-on-effort recommender.
type ROEResult struct {
	CaseID              string        `json:"caseId,omitempty"`
	ROEScore            float64       `json:"roeScore"`
	RecommendedAgencies []AgencyMatch `json:"recommendedAgencies"`
	RecommendedActions  []ActionItem  `json:"recommendedActions"`
	EscalationTimeline  string        `json:"escalationTimeline"`
	OptimalStrategy     string        `json:"optimalStrategy"`
	DataSource          string        `json:"dataSource"`
}

// Data-source flags threaded through recommender output. Informational only;
// never an input to scoring math.
const (
	SourceDatabase = "database"
	SourceFallback = "fallback"
)

// Action priority labels.
const (
	ActionCritical = "CRITICAL"
	ActionHigh     = "HIGH"
	ActionMedium   = "MEDIUM"
	ActionStandard = "STANDARD"
)
