package domain

// ScoreFactor is one weighted component of a priority score. Contribution is
// always Score * Weight; the factor list sums (rounded) to the final score.
type ScoreFactor struct {
	Factor       string  `json:"factor"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// PriorityResult is the output of the priority scorer.
type PriorityResult struct {
	CaseID         string        `json:"caseId,omitempty"`
	PriorityScore  int           `json:"priorityScore"`
	RiskLevel      string        `json:"riskLevel"`
	Factors        []ScoreFactor `json:"factors"`
	Recommendation string        `json:"recommendation"`
}

// Risk tiers derived from the priority score.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskMedium   = "MEDIUM"
	RiskLow      = "LOW"
	RiskMinimal  = "MINIMAL"
)
