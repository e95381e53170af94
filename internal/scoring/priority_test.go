package scoring

import (
	"errors"
	"testing"

	"github.com/collectworks/harrier/internal/domain"
)

func TestAmountScore(t *testing.T) {
	t.Run("LogScaleAnchors", func(t *testing.T) {
		cases := []struct {
			amount float64
			want   float64
		}{
			{1000, 50},
			{10000, 75},
			{100000, 100},
		}
		for _, c := range cases {
			if got := AmountScore(c.amount); got != c.want {
				t.Errorf("AmountScore(%.0f) = %.2f, want %.2f", c.amount, got, c.want)
			}
		}
	})

	t.Run("NonPositiveScoresZero", func(t *testing.T) {
		if got := AmountScore(0); got != 0 {
			t.Errorf("AmountScore(0) = %.2f, want 0", got)
		}
	})

	t.Run("SmallAmountFlooredAtZero", func(t *testing.T) {
		// log10(10)*25-25 = 0; anything below $10 would go negative.
		if got := AmountScore(5); got != 0 {
			t.Errorf("AmountScore(5) = %.2f, want 0", got)
		}
	})

	t.Run("CappedAtHundred", func(t *testing.T) {
		if got := AmountScore(10_000_000); got != 100 {
			t.Errorf("AmountScore(10M) = %.2f, want 100", got)
		}
	})

	t.Run("Monotonic", func(t *testing.T) {
		prev := -1.0
		for _, amount := range []float64{0, 10, 100, 1000, 5000, 10000, 50000, 100000} {
			got := AmountScore(amount)
			if got < prev {
				t.Errorf("AmountScore(%.0f) = %.2f decreased from %.2f", amount, got, prev)
			}
			prev = got
		}
	})
}

func TestDaysScore(t *testing.T) {
	cases := []struct {
		days int
		want float64
	}{
		{0, 0},
		{-5, 0},
		{15, 30},
		{30, 60},
		{31, 61},
		{60, 90},
		{90, 90 + 30*0.33},
		{91, 100},
		{365, 100},
	}
	for _, c := range cases {
		if got := DaysScore(c.days); got != c.want {
			t.Errorf("DaysScore(%d) = %.2f, want %.2f", c.days, got, c.want)
		}
	}
}

func TestSegmentScore(t *testing.T) {
	cases := []struct {
		segment domain.Segment
		want    float64
	}{
		{domain.SegmentEnterprise, 100},
		{domain.SegmentLarge, 80},
		{domain.SegmentMedium, 60},
		{domain.SegmentSmall, 40},
		{domain.SegmentMicro, 20},
		{domain.SegmentUnknown, 50},
	}
	for _, c := range cases {
		if got := SegmentScore(c.segment); got != c.want {
			t.Errorf("SegmentScore(%s) = %.0f, want %.0f", c.segment, got, c.want)
		}
	}
}

func TestRiskLevel(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, domain.RiskCritical},
		{80, domain.RiskCritical},
		{79, domain.RiskHigh},
		{60, domain.RiskHigh},
		{59, domain.RiskMedium},
		{40, domain.RiskMedium},
		{39, domain.RiskLow},
		{20, domain.RiskLow},
		{19, domain.RiskMinimal},
		{0, domain.RiskMinimal},
	}
	for _, c := range cases {
		if got := RiskLevel(c.score); got != c.want {
			t.Errorf("RiskLevel(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestScorePriority(t *testing.T) {
	t.Run("WorkedExample", func(t *testing.T) {
		r, err := ScorePriority(domain.CaseAttributes{
			CaseID:              "case-001",
			OutstandingAmount:   10000,
			DaysPastDue:         45,
			Segment:             domain.SegmentEnterprise,
			PaymentHistoryScore: 30,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.PriorityScore != 79 {
			t.Errorf("expected score 79, got %d", r.PriorityScore)
		}
		if r.RiskLevel != domain.RiskHigh {
			t.Errorf("expected HIGH risk, got %s", r.RiskLevel)
		}
		if len(r.Factors) != 4 {
			t.Fatalf("expected 4 factors, got %d", len(r.Factors))
		}
		if r.Factors[0].Factor != "Outstanding Amount" || r.Factors[0].Contribution != 26.3 {
			t.Errorf("amount factor = %+v", r.Factors[0])
		}
	})

	t.Run("ContributionsSumToScore", func(t *testing.T) {
		r, err := ScorePriority(domain.CaseAttributes{
			CaseID:              "case-002",
			OutstandingAmount:   50000,
			DaysPastDue:         75,
			Segment:             domain.SegmentMedium,
			PaymentHistoryScore: 80,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var sum float64
		for _, f := range r.Factors {
			sum += f.Contribution
		}
		if int(sum) != r.PriorityScore {
			t.Errorf("contributions sum %.2f does not truncate to score %d", sum, r.PriorityScore)
		}
	})

	t.Run("ExtremesStayInBounds", func(t *testing.T) {
		high, err := ScorePriority(domain.CaseAttributes{
			OutstandingAmount: 10_000_000,
			DaysPastDue:       365,
			Segment:           domain.SegmentEnterprise,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if high.PriorityScore > 100 {
			t.Errorf("score %d exceeds 100", high.PriorityScore)
		}
		low, err := ScorePriority(domain.CaseAttributes{
			Segment:             domain.SegmentMicro,
			PaymentHistoryScore: 100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if low.PriorityScore < 0 {
			t.Errorf("score %d below 0", low.PriorityScore)
		}
		if low.RiskLevel != domain.RiskMinimal {
			t.Errorf("expected MINIMAL for floor case, got %s", low.RiskLevel)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		_, err := ScorePriority(domain.CaseAttributes{OutstandingAmount: -1})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
		_, err = ScorePriority(domain.CaseAttributes{PaymentHistoryScore: 101})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error for history > 100, got %v", err)
		}
	})
}

func TestScorePriorityBatch(t *testing.T) {
	results := ScorePriorityBatch([]domain.CaseAttributes{
		{CaseID: "ok-1", OutstandingAmount: 5000, DaysPastDue: 20, Segment: domain.SegmentMedium},
		{CaseID: "bad", OutstandingAmount: -5},
		{CaseID: "ok-2", OutstandingAmount: 200, DaysPastDue: 100, Segment: domain.SegmentSmall, PaymentHistoryScore: 90},
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Result == nil || results[0].Error != "" {
		t.Errorf("first item should succeed: %+v", results[0])
	}
	if results[1].Result != nil || results[1].Error == "" {
		t.Errorf("second item should carry a per-item error: %+v", results[1])
	}
	if results[2].Result == nil {
		t.Errorf("failure must not abort later items")
	}
	if results[0].Result.CaseID != "ok-1" || results[2].Result.CaseID != "ok-2" {
		t.Errorf("results out of order")
	}
}
