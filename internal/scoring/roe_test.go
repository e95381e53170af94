package scoring

import (
	"errors"
	"testing"

	"github.com/collectworks/harrier/internal/domain"
)

func TestBuildProfile(t *testing.T) {
	t.Run("HighVolumeAgency", func(t *testing.T) {
		p := BuildProfile(&domain.AgencyRecord{
			ID:            "dca-1",
			Name:          "Volume Partners",
			CapacityLimit: 250,
			CapacityUsed:  100,
			RecoveryRate:  0.8,
		})
		want := []string{"SMALL", "MICRO", SpecialtyHighVolume, SpecialtyHighValue}
		if len(p.Specialties) != len(want) {
			t.Fatalf("specialties = %v, want %v", p.Specialties, want)
		}
		for i, w := range want {
			if p.Specialties[i] != w {
				t.Errorf("specialty %d = %s, want %s", i, p.Specialties[i], w)
			}
		}
		if p.CapacityAvailable != 150 {
			t.Errorf("capacity available = %d, want 150", p.CapacityAvailable)
		}
	})

	t.Run("BoutiqueAgency", func(t *testing.T) {
		p := BuildProfile(&domain.AgencyRecord{ID: "dca-2", CapacityLimit: 20, RecoveryRate: 0.6})
		want := []string{"ENTERPRISE", "LARGE"}
		if len(p.Specialties) != len(want) || p.Specialties[0] != want[0] || p.Specialties[1] != want[1] {
			t.Errorf("specialties = %v, want %v", p.Specialties, want)
		}
		if p.Name != "Unknown Agency" {
			t.Errorf("empty name should default, got %q", p.Name)
		}
		if p.PerformanceScore != 50 {
			t.Errorf("zero performance score should default to 50, got %.0f", p.PerformanceScore)
		}
	})
}

func TestMatchAgency(t *testing.T) {
	c := domain.CaseAttributes{
		CaseID:            "case-100",
		OutstandingAmount: 15000,
		DaysPastDue:       100,
		Segment:           domain.SegmentMedium,
	}

	t.Run("EveryRuleFires", func(t *testing.T) {
		agency := domain.AgencyProfile{
			ID:                "dca-9",
			Name:              "Full Service",
			Specialties:       []string{"MEDIUM", SpecialtyLegal},
			RecoveryRate:      0.8,
			CapacityAvailable: 50,
			MinAmount:         1000,
			PerformanceScore:  85,
		}
		score, reasons := MatchAgency(agency, c, 80)
		// 50+25+10+10+15+10+10 clamps to 100.
		if score != 100 {
			t.Errorf("score = %.0f, want 100", score)
		}
		want := []string{
			"Specializes in MEDIUM segment",
			"Amount within agency's target range",
			"Has available capacity (50 slots)",
			"High performer for high-priority cases",
			"Top performer (score: 85)",
			"Legal capability for aged cases",
		}
		if len(reasons) != len(want) {
			t.Fatalf("reasons = %v", reasons)
		}
		for i, w := range want {
			if reasons[i] != w {
				t.Errorf("reason %d = %q, want %q", i, reasons[i], w)
			}
		}
	})

	t.Run("PenaltiesApply", func(t *testing.T) {
		agency := domain.AgencyProfile{
			ID:                "dca-10",
			Specialties:       []string{"ENTERPRISE"},
			RecoveryRate:      0.4,
			CapacityAvailable: 0,
			MinAmount:         50000,
			PerformanceScore:  40,
		}
		score, reasons := MatchAgency(agency, c, 30)
		// 50-10-15 = 25.
		if score != 25 {
			t.Errorf("score = %.0f, want 25", score)
		}
		if len(reasons) != 2 {
			t.Fatalf("reasons = %v", reasons)
		}
		if reasons[0] != "Amount below agency's preferred minimum" || reasons[1] != "No capacity available" {
			t.Errorf("unexpected reasons: %v", reasons)
		}
	})

	t.Run("LimitedCapacity", func(t *testing.T) {
		agency := domain.AgencyProfile{CapacityAvailable: 10, MinAmount: 1000, PerformanceScore: 50}
		score, _ := MatchAgency(agency, c, 30)
		// 50+10+5.
		if score != 65 {
			t.Errorf("score = %.0f, want 65", score)
		}
	})
}

func TestRecommend(t *testing.T) {
	c := domain.CaseAttributes{
		CaseID:            "case-200",
		OutstandingAmount: 12000,
		DaysPastDue:       45,
		Segment:           domain.SegmentMedium,
	}

	t.Run("RanksAndTrimsToThree", func(t *testing.T) {
		candidates := []domain.AgencyProfile{
			{ID: "d1", Name: "One", CapacityAvailable: 0, MinAmount: 1000, PerformanceScore: 40},
			{ID: "d2", Name: "Two", Specialties: []string{"MEDIUM"}, CapacityAvailable: 50, MinAmount: 1000, PerformanceScore: 85, RecoveryRate: 0.8},
			{ID: "d3", Name: "Three", CapacityAvailable: 10, MinAmount: 1000, PerformanceScore: 65},
			{ID: "d4", Name: "Four", CapacityAvailable: 30, MinAmount: 1000, PerformanceScore: 50},
		}
		r, err := Recommend(c, 75, candidates, domain.SourceDatabase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(r.RecommendedAgencies) != 3 {
			t.Fatalf("expected top 3, got %d", len(r.RecommendedAgencies))
		}
		if r.RecommendedAgencies[0].AgencyID != "d2" {
			t.Errorf("best match = %s, want d2", r.RecommendedAgencies[0].AgencyID)
		}
		for i := 1; i < len(r.RecommendedAgencies); i++ {
			if r.RecommendedAgencies[i].MatchScore > r.RecommendedAgencies[i-1].MatchScore {
				t.Errorf("matches not sorted descending")
			}
		}
		if r.DataSource != domain.SourceDatabase {
			t.Errorf("data source = %s", r.DataSource)
		}
	})

	t.Run("ROEScoreComposition", func(t *testing.T) {
		candidates := []domain.AgencyProfile{
			{ID: "d2", Specialties: []string{"MEDIUM"}, CapacityAvailable: 50, MinAmount: 1000, PerformanceScore: 85, RecoveryRate: 0.8},
		}
		r, err := Recommend(c, 75, candidates, domain.SourceDatabase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Strong match + recent case + meaningful amount: 50+20+15+15.
		if r.ROEScore != 100 {
			t.Errorf("ROE score = %.0f, want 100", r.ROEScore)
		}
	})

	t.Run("EmptyCandidatesFallBack", func(t *testing.T) {
		r, err := Recommend(c, 50, nil, domain.SourceDatabase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.DataSource != domain.SourceFallback {
			t.Errorf("data source = %s, want fallback", r.DataSource)
		}
		if len(r.RecommendedAgencies) != 1 || r.RecommendedAgencies[0].AgencyID != "fallback-1" {
			t.Errorf("expected the built-in fallback agency, got %+v", r.RecommendedAgencies)
		}
	})

	t.Run("ActionLadder", func(t *testing.T) {
		aged := domain.CaseAttributes{
			CaseID:            "case-201",
			OutstandingAmount: 60000,
			DaysPastDue:       95,
			Segment:           domain.SegmentLarge,
		}
		r, err := Recommend(aged, 85, nil, domain.SourceDatabase)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Critical contact, settlement plan, final notice, legal review, reminders.
		if len(r.RecommendedActions) != 5 {
			t.Fatalf("expected 5 actions, got %d: %+v", len(r.RecommendedActions), r.RecommendedActions)
		}
		if r.RecommendedActions[0].Priority != domain.ActionCritical {
			t.Errorf("first action priority = %s", r.RecommendedActions[0].Priority)
		}
		last := r.RecommendedActions[len(r.RecommendedActions)-1]
		if last.Priority != domain.ActionStandard {
			t.Errorf("reminder sequence must come last, got %+v", last)
		}
		if r.EscalationTimeline != "Immediate escalation required - already critical" {
			t.Errorf("escalation = %q", r.EscalationTimeline)
		}
		if r.OptimalStrategy != "Executive Escalation: High-touch personal attention with senior decision-maker engagement" {
			t.Errorf("strategy = %q", r.OptimalStrategy)
		}
	})

	t.Run("InvalidPriority", func(t *testing.T) {
		_, err := Recommend(c, 101, nil, domain.SourceDatabase)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}
