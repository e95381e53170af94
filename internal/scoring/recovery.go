package scoring

import (
	"fmt"

	"github.com/collectworks/harrier/internal/domain"
)

// AgeBracket discretizes days past due for base-rate lookup. Brackets are
// inclusive at the upper edge: day 30 is "0-30", day 180 is "91-180".
func AgeBracket(days int) string {
	switch {
	case days <= 30:
		return "0-30"
	case days <= 60:
		return "31-60"
	case days <= 90:
		return "61-90"
	case days <= 180:
		return "91-180"
	default:
		return "180+"
	}
}

// RecoveryProbability combines the age-bracket base rate with segment,
// agency, and payment-history modifiers, clamped to [0.05, 0.95].
func RecoveryProbability(daysPastDue int, segment domain.Segment, dcaRate float64, previousPayments int) float64 {
	base := recoveryBaseRates[AgeBracket(daysPastDue)]

	segmentMod := 1.0
	if m, ok := segmentModifiers[segment]; ok {
		segmentMod = m
	}

	// Agency modifier ranges 0.7-1.3 as the rate ranges 0-1.
	dcaMod := 0.7 + dcaRate*0.6

	historyMod := 1.0
	switch {
	case previousPayments >= 3:
		historyMod = 1.2
	case previousPayments >= 1:
		historyMod = 1.1
	}

	p := base * segmentMod * dcaMod * historyMod
	if p < minProbability {
		return minProbability
	}
	if p > maxProbability {
		return maxProbability
	}
	return p
}

// recoveryTimeline estimates days to recovery, banded by probability.
func recoveryTimeline(daysPastDue int, probability float64) int {
	switch {
	case probability >= 0.8:
		return 15 + daysPastDue/10
	case probability >= 0.6:
		return 30 + daysPastDue/5
	case probability >= 0.4:
		return 60 + daysPastDue/3
	default:
		return 90 + daysPastDue
	}
}

func confidenceLevel(probability float64, days int) string {
	switch {
	case days <= 60 && probability >= 0.6:
		return domain.ConfidenceHigh
	case days <= 120 || probability >= 0.4:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// recoveryFactors derives risk and positive factor lists. Rule order is
// fixed: age, segment, agency, payment history. Each rule appends at most
// one line to one of the lists.
func recoveryFactors(days int, segment domain.Segment, dcaRate float64, payments int) (risk, positive []string) {
	switch {
	case days > 180:
		risk = append(risk, "Case is significantly aged (180+ days)")
	case days > 90:
		risk = append(risk, "Case is aging (90+ days)")
	case days <= 30:
		positive = append(positive, "Recent case with high recovery potential")
	}

	if segment.IsLargeTier() {
		positive = append(positive, fmt.Sprintf("%s customer - higher recovery likelihood", segment))
	} else if segment == domain.SegmentMicro || segment == domain.SegmentSmall {
		risk = append(risk, fmt.Sprintf("%s customer - may have limited payment capacity", segment))
	}

	if dcaRate >= 0.7 {
		positive = append(positive, "Assigned to high-performing agency")
	} else if dcaRate < 0.5 {
		risk = append(risk, "Agency has below-average recovery rate")
	}

	if payments >= 2 {
		positive = append(positive, "Customer has made recent payments")
	} else if payments == 0 {
		risk = append(risk, "No payment history on this case")
	}

	return risk, positive
}

func recoveryStrategy(probability float64, segment domain.Segment) string {
	switch {
	case probability >= 0.7:
		return "Standard collection with payment plan offering"
	case probability >= 0.5:
		if segment.IsLargeTier() {
			return "Relationship-based approach with executive escalation option"
		}
		return "Intensified collection with settlement negotiation"
	case probability >= 0.3:
		return "Aggressive collection strategy with legal notice consideration"
	default:
		return "Evaluate for write-off or sale to specialized agency"
	}
}

// PredictRecovery estimates recovery probability, expected amount, and
// timeline for a case. dcaRate is the assigned agency's recovery rate; pass
// DefaultDCARate when no agency is assigned.
func PredictRecovery(c domain.CaseAttributes, dcaRate float64) (*domain.RecoveryResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if dcaRate < 0 || dcaRate > 1 {
		return nil, fmt.Errorf("%w: agency recovery rate must be within [0,1]", domain.ErrValidation)
	}

	probability := RecoveryProbability(c.DaysPastDue, c.Segment, dcaRate, c.PreviousPayments)
	expected := c.OutstandingAmount * probability
	risk, positive := recoveryFactors(c.DaysPastDue, c.Segment, dcaRate, c.PreviousPayments)

	return &domain.RecoveryResult{
		CaseID:                 c.CaseID,
		RecoveryProbability:    round1(probability * 100),
		ExpectedRecoveryAmount: round2(expected),
		ExpectedTimelineDays:   recoveryTimeline(c.DaysPastDue, probability),
		ConfidenceLevel:        confidenceLevel(probability, c.DaysPastDue),
		RiskFactors:            risk,
		PositiveFactors:        positive,
		RecommendedStrategy:    recoveryStrategy(probability, c.Segment),
	}, nil
}

// RecoveryItemResult is one entry of a batch prediction run.
type RecoveryItemResult struct {
	Result *domain.RecoveryResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// RecoveryBatchInput pairs a case with its agency rate for batch prediction.
type RecoveryBatchInput struct {
	Case    domain.CaseAttributes
	DCARate float64
}

// PredictRecoveryBatch predicts each case independently and aggregates
// totals over the successful items: sum of outstanding, sum of expected
// recovery, and the arithmetic mean probability.
func PredictRecoveryBatch(inputs []RecoveryBatchInput) ([]RecoveryItemResult, domain.RecoveryBatchSummary) {
	results := make([]RecoveryItemResult, 0, len(inputs))
	var summary domain.RecoveryBatchSummary
	var probabilitySum float64
	var ok int

	for _, in := range inputs {
		r, err := PredictRecovery(in.Case, in.DCARate)
		if err != nil {
			results = append(results, RecoveryItemResult{Error: err.Error()})
			continue
		}
		results = append(results, RecoveryItemResult{Result: r})
		summary.TotalOutstanding += in.Case.OutstandingAmount
		summary.TotalExpectedRecovery += r.ExpectedRecoveryAmount
		probabilitySum += r.RecoveryProbability
		ok++
	}

	if ok > 0 {
		summary.AverageRecoveryProbability = round1(probabilitySum / float64(ok))
	}
	summary.TotalOutstanding = round2(summary.TotalOutstanding)
	summary.TotalExpectedRecovery = round2(summary.TotalExpectedRecovery)

	return results, summary
}
