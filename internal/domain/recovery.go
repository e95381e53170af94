package domain

// RecoveryResult is the output of the recovery predictor.
// RecoveryProbability is reported as a percentage rounded to one decimal;
// the underlying fraction is clamped to [0.05, 0.95] before conversion.
type RecoveryResult struct {
	CaseID                 string   `json:"caseId,omitempty"`
	RecoveryProbability    float64  `json:"recoveryProbability"`
	ExpectedRecoveryAmount float64  `json:"expectedRecoveryAmount"`
	ExpectedTimelineDays   int      `json:"expectedTimelineDays"`
	ConfidenceLevel        string   `json:"confidenceLevel"`
	RiskFactors            []string `json:"riskFactors"`
	PositiveFactors        []string `json:"positiveFactors"`
	RecommendedStrategy    string   `json:"recommendedStrategy"`
}

// Confidence tiers for recovery predictions.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// RecoveryBatchSummary aggregates a batch prediction run. The mean is a
// simple arithmetic mean over item probabilities, not amount-weighted.
type RecoveryBatchSummary struct {
	TotalOutstanding           float64 `json:"totalOutstanding"`
	TotalExpectedRecovery      float64 `json:"totalExpectedRecovery"`
	AverageRecoveryProbability float64 `json:"averageRecoveryProbability"`
}
