package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/collectworks/harrier/internal/domain"
)

func TestAgeBracket(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, "0-30"},
		{30, "0-30"},
		{31, "31-60"},
		{60, "31-60"},
		{61, "61-90"},
		{90, "61-90"},
		{91, "91-180"},
		{180, "91-180"},
		{181, "180+"},
		{400, "180+"},
	}
	for _, c := range cases {
		if got := AgeBracket(c.days); got != c.want {
			t.Errorf("AgeBracket(%d) = %s, want %s", c.days, got, c.want)
		}
	}
}

func TestRecoveryProbability(t *testing.T) {
	t.Run("WorkedExample", func(t *testing.T) {
		// 0.85 base * 1.0 segment * (0.7 + 0.65*0.6) agency * 1.0 history.
		got := RecoveryProbability(25, domain.SegmentMedium, 0.65, 0)
		if math.Abs(got-0.9265) > 1e-9 {
			t.Errorf("expected 0.9265, got %.4f", got)
		}
	})

	t.Run("ClampedAtUpperBound", func(t *testing.T) {
		got := RecoveryProbability(10, domain.SegmentEnterprise, 1.0, 3)
		if got != 0.95 {
			t.Errorf("expected 0.95 clamp, got %.4f", got)
		}
	})

	t.Run("LowerBoundHolds", func(t *testing.T) {
		got := RecoveryProbability(400, domain.SegmentMicro, 0, 0)
		if got < 0.05 {
			t.Errorf("probability %.4f below floor", got)
		}
	})

	t.Run("PaymentHistoryModifier", func(t *testing.T) {
		none := RecoveryProbability(100, domain.SegmentMedium, 0.5, 0)
		one := RecoveryProbability(100, domain.SegmentMedium, 0.5, 1)
		three := RecoveryProbability(100, domain.SegmentMedium, 0.5, 3)
		if !(none < one && one < three) {
			t.Errorf("expected monotonic history lift: %.4f %.4f %.4f", none, one, three)
		}
	})

	t.Run("OlderCasesRecoverLess", func(t *testing.T) {
		prev := 2.0
		for _, days := range []int{10, 40, 70, 120, 200} {
			got := RecoveryProbability(days, domain.SegmentMedium, 0.65, 0)
			if got > prev {
				t.Errorf("probability rose with age at %d days: %.4f > %.4f", days, got, prev)
			}
			prev = got
		}
	})
}

func TestPredictRecovery(t *testing.T) {
	t.Run("ReportedFields", func(t *testing.T) {
		r, err := PredictRecovery(domain.CaseAttributes{
			CaseID:            "case-010",
			OutstandingAmount: 10000,
			DaysPastDue:       25,
			Segment:           domain.SegmentMedium,
		}, 0.65)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.RecoveryProbability != 92.7 {
			t.Errorf("expected probability 92.7%%, got %.1f", r.RecoveryProbability)
		}
		if r.ExpectedRecoveryAmount != 9265.0 {
			t.Errorf("expected amount 9265.00, got %.2f", r.ExpectedRecoveryAmount)
		}
		// p >= 0.8 band: 15 + 25/10.
		if r.ExpectedTimelineDays != 17 {
			t.Errorf("expected 17 day timeline, got %d", r.ExpectedTimelineDays)
		}
		if r.ConfidenceLevel != domain.ConfidenceHigh {
			t.Errorf("expected HIGH confidence, got %s", r.ConfidenceLevel)
		}
	})

	t.Run("ConfidenceBands", func(t *testing.T) {
		aged, err := PredictRecovery(domain.CaseAttributes{
			CaseID:            "case-011",
			OutstandingAmount: 1000,
			DaysPastDue:       200,
			Segment:           domain.SegmentMicro,
		}, 0.2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if aged.ConfidenceLevel != domain.ConfidenceLow {
			t.Errorf("expected LOW confidence for aged low-probability case, got %s", aged.ConfidenceLevel)
		}
		mid, err := PredictRecovery(domain.CaseAttributes{
			CaseID:            "case-012",
			OutstandingAmount: 1000,
			DaysPastDue:       100,
			Segment:           domain.SegmentMedium,
		}, 0.2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mid.ConfidenceLevel != domain.ConfidenceMedium {
			t.Errorf("expected MEDIUM confidence, got %s", mid.ConfidenceLevel)
		}
	})

	t.Run("FactorsFollowRuleOrder", func(t *testing.T) {
		r, err := PredictRecovery(domain.CaseAttributes{
			CaseID:            "case-013",
			OutstandingAmount: 2000,
			DaysPastDue:       200,
			Segment:           domain.SegmentMicro,
		}, 0.3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{
			"Case is significantly aged (180+ days)",
			"MICRO customer - may have limited payment capacity",
			"Agency has below-average recovery rate",
			"No payment history on this case",
		}
		if len(r.RiskFactors) != len(want) {
			t.Fatalf("expected %d risk factors, got %d: %v", len(want), len(r.RiskFactors), r.RiskFactors)
		}
		for i, w := range want {
			if r.RiskFactors[i] != w {
				t.Errorf("risk factor %d = %q, want %q", i, r.RiskFactors[i], w)
			}
		}
		if len(r.PositiveFactors) != 0 {
			t.Errorf("expected no positive factors, got %v", r.PositiveFactors)
		}
	})

	t.Run("PositiveFactors", func(t *testing.T) {
		r, err := PredictRecovery(domain.CaseAttributes{
			CaseID:            "case-014",
			OutstandingAmount: 50000,
			DaysPastDue:       10,
			Segment:           domain.SegmentEnterprise,
			PreviousPayments:  2,
		}, 0.8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{
			"Recent case with high recovery potential",
			"ENTERPRISE customer - higher recovery likelihood",
			"Assigned to high-performing agency",
			"Customer has made recent payments",
		}
		if len(r.PositiveFactors) != len(want) {
			t.Fatalf("expected %d positive factors, got %v", len(want), r.PositiveFactors)
		}
		for i, w := range want {
			if r.PositiveFactors[i] != w {
				t.Errorf("positive factor %d = %q, want %q", i, r.PositiveFactors[i], w)
			}
		}
	})

	t.Run("InvalidRate", func(t *testing.T) {
		_, err := PredictRecovery(domain.CaseAttributes{CaseID: "case-015", OutstandingAmount: 100}, 1.5)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error for rate > 1, got %v", err)
		}
	})
}

func TestPredictRecoveryBatch(t *testing.T) {
	results, summary := PredictRecoveryBatch([]RecoveryBatchInput{
		{Case: domain.CaseAttributes{CaseID: "a", OutstandingAmount: 10000, DaysPastDue: 25, Segment: domain.SegmentMedium}, DCARate: 0.65},
		{Case: domain.CaseAttributes{CaseID: "bad", OutstandingAmount: -1}, DCARate: 0.65},
		{Case: domain.CaseAttributes{CaseID: "b", OutstandingAmount: 10000, DaysPastDue: 25, Segment: domain.SegmentMedium}, DCARate: 0.65},
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].Error == "" {
		t.Errorf("invalid item should carry an error")
	}

	// Aggregates cover the two successful items only.
	if summary.TotalOutstanding != 20000 {
		t.Errorf("total outstanding = %.2f, want 20000", summary.TotalOutstanding)
	}
	if summary.TotalExpectedRecovery != 18530 {
		t.Errorf("total expected = %.2f, want 18530", summary.TotalExpectedRecovery)
	}
	if summary.AverageRecoveryProbability != 92.7 {
		t.Errorf("average probability = %.1f, want 92.7", summary.AverageRecoveryProbability)
	}
}
