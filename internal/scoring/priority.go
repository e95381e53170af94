package scoring

import (
	"math"

	"github.com/collectworks/harrier/internal/domain"
)

// AmountScore scores the outstanding amount on a log scale:
// $1,000 -> 50, $10,000 -> 75, $100,000 -> 100. Non-positive amounts score 0.
func AmountScore(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	score := math.Min(100, 25*math.Log10(math.Max(amount, 1))-25)
	return math.Max(0, score)
}

// DaysScore scores days past due on piecewise-linear brackets, capped at 100
// beyond 90 days.
func DaysScore(days int) float64 {
	switch {
	case days <= 0:
		return 0
	case days <= 30:
		return float64(days) * 2 // 0-60
	case days <= 60:
		return 60 + float64(days-30) // 60-90
	case days <= 90:
		return 90 + float64(days-60)*0.33 // 90-100
	default:
		return 100
	}
}

// SegmentScore looks up the priority score for a segment.
func SegmentScore(segment domain.Segment) float64 {
	if s, ok := segmentScores[segment]; ok {
		return s
	}
	return defaultSegmentScore
}

// RiskLevel maps a priority score to a risk tier.
func RiskLevel(score int) string {
	switch {
	case score >= 80:
		return domain.RiskCritical
	case score >= 60:
		return domain.RiskHigh
	case score >= 40:
		return domain.RiskMedium
	case score >= 20:
		return domain.RiskLow
	default:
		return domain.RiskMinimal
	}
}

func priorityRecommendation(score int) string {
	switch {
	case score >= 80:
		return "Immediate escalation required. Assign to top-performing agency with legal capability."
	case score >= 60:
		return "High priority case. Assign to experienced agency with aggressive collection strategy."
	case score >= 40:
		return "Standard collection process. Monitor for payment plan compliance."
	case score >= 20:
		return "Low risk. Automated reminders may be sufficient."
	default:
		return "Minimal intervention needed. Continue standard follow-up."
	}
}

// ScorePriority computes the weighted priority score for a case with a
// per-factor breakdown. Input is validated before any arithmetic runs.
func ScorePriority(c domain.CaseAttributes) (*domain.PriorityResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	amountScore := AmountScore(c.OutstandingAmount)
	daysScore := DaysScore(c.DaysPastDue)
	segmentScore := SegmentScore(c.Segment)
	// Inverse: bad payment history raises priority.
	historyScore := 100 - c.PaymentHistoryScore

	factors := []domain.ScoreFactor{
		{
			Factor:       "Outstanding Amount",
			Score:        round1(amountScore),
			Weight:       priorityWeights.Amount,
			Contribution: round1(amountScore * priorityWeights.Amount),
		},
		{
			Factor:       "Days Past Due",
			Score:        round1(daysScore),
			Weight:       priorityWeights.Days,
			Contribution: round1(daysScore * priorityWeights.Days),
		},
		{
			Factor:       "Customer Segment",
			Score:        round1(segmentScore),
			Weight:       priorityWeights.Segment,
			Contribution: round1(segmentScore * priorityWeights.Segment),
		},
		{
			Factor:       "Payment History Risk",
			Score:        round1(historyScore),
			Weight:       priorityWeights.History,
			Contribution: round1(historyScore * priorityWeights.History),
		},
	}

	var total float64
	for _, f := range factors {
		total += f.Contribution
	}
	score := int(clampScore(total))

	return &domain.PriorityResult{
		CaseID:         c.CaseID,
		PriorityScore:  score,
		RiskLevel:      RiskLevel(score),
		Factors:        factors,
		Recommendation: priorityRecommendation(score),
	}, nil
}

// PriorityItemResult is one entry of a batch scoring run. Exactly one of
// Result and Error is set.
type PriorityItemResult struct {
	Result *domain.PriorityResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// ScorePriorityBatch applies the priority scorer across an ordered sequence.
// Invalid items produce per-item errors without aborting the rest.
func ScorePriorityBatch(cases []domain.CaseAttributes) []PriorityItemResult {
	results := make([]PriorityItemResult, 0, len(cases))
	for _, c := range cases {
		r, err := ScorePriority(c)
		if err != nil {
			results = append(results, PriorityItemResult{Error: err.Error()})
			continue
		}
		results = append(results, PriorityItemResult{Result: r})
	}
	return results
}

// round1 rounds to one decimal place, matching reported factor precision.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places, used for currency amounts.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
