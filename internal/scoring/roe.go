package scoring

import (
	"fmt"
	"sort"

	"github.com/collectworks/harrier/internal/domain"
)

// defaultMinAmount is the assumed per-agency minimum case amount until
// agencies carry one of their own.
const defaultMinAmount = 1000

// BuildProfile converts a stored agency record into the matching-shaped
// profile, deriving specialty tags from capacity and recovery rate. The
// derivation is a one-way heuristic owned by the recommender, not a stored
// fact about the agency.
func BuildProfile(rec *domain.AgencyRecord) domain.AgencyProfile {
	var specialties []string

	switch {
	case rec.CapacityLimit >= 200:
		specialties = append(specialties, string(domain.SegmentSmall), string(domain.SegmentMicro), SpecialtyHighVolume)
	case rec.CapacityLimit >= 50:
		specialties = append(specialties, string(domain.SegmentMedium), string(domain.SegmentSmall))
	default:
		specialties = append(specialties, string(domain.SegmentEnterprise), string(domain.SegmentLarge))
	}

	if rec.RecoveryRate >= 0.75 {
		specialties = append(specialties, SpecialtyHighValue)
	}

	name := rec.Name
	if name == "" {
		name = "Unknown Agency"
	}

	perf := rec.PerformanceScore
	if perf == 0 {
		perf = 50
	}

	return domain.AgencyProfile{
		ID:                rec.ID,
		Name:              name,
		Specialties:       specialties,
		RecoveryRate:      rec.RecoveryRate,
		CapacityAvailable: rec.CapacityAvailable(),
		MinAmount:         defaultMinAmount,
		PerformanceScore:  perf,
	}
}

// FallbackAgency is the built-in profile used when no candidate agencies are
// available, so a recommendation response is always fully populated.
func FallbackAgency() domain.AgencyProfile {
	return domain.AgencyProfile{
		ID:                "fallback-1",
		Name:              "Default Agency (database unavailable)",
		Specialties:       []string{string(domain.SegmentMedium)},
		RecoveryRate:      0.65,
		CapacityAvailable: 100,
		MinAmount:         defaultMinAmount,
		PerformanceScore:  50,
	}
}

// MatchAgency scores a candidate agency against a case. The score starts at
// 50 and each rule adjusts it independently, appending a reason in firing
// order. The result is clamped to [0,100].
func MatchAgency(agency domain.AgencyProfile, c domain.CaseAttributes, priority int) (float64, []string) {
	score := 50.0
	var reasons []string

	if agency.HasSpecialty(string(c.Segment)) {
		score += 25
		reasons = append(reasons, fmt.Sprintf("Specializes in %s segment", c.Segment))
	}

	if c.OutstandingAmount >= agency.MinAmount {
		score += 10
		reasons = append(reasons, "Amount within agency's target range")
	} else {
		score -= 10
		reasons = append(reasons, "Amount below agency's preferred minimum")
	}

	switch {
	case agency.CapacityAvailable > 20:
		score += 10
		reasons = append(reasons, fmt.Sprintf("Has available capacity (%d slots)", agency.CapacityAvailable))
	case agency.CapacityAvailable > 0:
		score += 5
		reasons = append(reasons, "Limited capacity available")
	default:
		score -= 15
		reasons = append(reasons, "No capacity available")
	}

	if priority >= 70 && agency.RecoveryRate >= 0.75 {
		score += 15
		reasons = append(reasons, "High performer for high-priority cases")
	}

	if agency.PerformanceScore >= 80 {
		score += 10
		reasons = append(reasons, fmt.Sprintf("Top performer (score: %.0f)", agency.PerformanceScore))
	} else if agency.PerformanceScore >= 60 {
		score += 5
		reasons = append(reasons, fmt.Sprintf("Above average performer (score: %.0f)", agency.PerformanceScore))
	}

	if c.DaysPastDue > 90 && agency.HasSpecialty(SpecialtyLegal) {
		score += 10
		reasons = append(reasons, "Legal capability for aged cases")
	}

	return clampScore(score), reasons
}

// recommendedActions builds the action list from independent rules on
// priority, amount, and age. The standard automated-reminder action is
// always appended last.
func recommendedActions(amount float64, days, priority int) []domain.ActionItem {
	var actions []domain.ActionItem

	if priority >= 80 {
		actions = append(actions, domain.ActionItem{
			Action:         "Immediate phone contact with decision maker",
			Priority:       domain.ActionCritical,
			Timeline:       "Within 24 hours",
			ExpectedImpact: "40% higher response rate",
		})
	} else if priority >= 60 {
		actions = append(actions, domain.ActionItem{
			Action:         "Send formal demand letter with payment options",
			Priority:       domain.ActionHigh,
			Timeline:       "Within 48 hours",
			ExpectedImpact: "25% payment initiation rate",
		})
	}

	if amount >= 50000 {
		actions = append(actions, domain.ActionItem{
			Action:         "Propose structured settlement plan",
			Priority:       domain.ActionHigh,
			Timeline:       "Within first week",
			ExpectedImpact: "Higher recovery on large amounts",
		})
	}

	if days >= 60 {
		actions = append(actions, domain.ActionItem{
			Action:         "Escalate with final notice before legal action",
			Priority:       domain.ActionMedium,
			Timeline:       "Week 2",
			ExpectedImpact: "Creates urgency for payment",
		})
	}

	if days >= 90 {
		actions = append(actions, domain.ActionItem{
			Action:         "Review for legal proceedings or agency transfer",
			Priority:       domain.ActionHigh,
			Timeline:       "Week 3",
			ExpectedImpact: "May require legal intervention",
		})
	}

	actions = append(actions, domain.ActionItem{
		Action:         "Implement automated reminder sequence",
		Priority:       domain.ActionStandard,
		Timeline:       "Ongoing",
		ExpectedImpact: "Maintains collection pressure",
	})

	return actions
}

// optimalStrategy uses its own thresholds, distinct from the recovery
// predictor's strategy ladder.
func optimalStrategy(priority int, amount float64, segment domain.Segment) string {
	switch {
	case priority >= 80 && amount >= 10000:
		return "Executive Escalation: High-touch personal attention with senior decision-maker engagement"
	case priority >= 60:
		return "Intensive Collection: Frequent contact with payment plan negotiation focus"
	case segment.IsLargeTier():
		return "Relationship Preservation: Maintain business relationship while pursuing payment"
	default:
		return "Standard Collection: Systematic follow-up with automated reminders"
	}
}

func escalationTimeline(days, priority int) string {
	switch {
	case priority >= 80:
		return "Immediate escalation required - already critical"
	case days >= 90:
		return "Escalate now - case is aging beyond optimal recovery window"
	case days >= 60:
		return "Escalate in 15 days if no payment progress"
	case days >= 30:
		return "Escalate in 30 days if no payment progress"
	default:
		return "Standard 45-day escalation timeline"
	}
}

// Recommend matches a case against candidate agencies and derives the
// overall return-on-effort recommendation. An empty candidate list falls
// back to the built-in default agency so the response shape is always
// populated. source is threaded into the output unchanged; it never affects
// the math.
func Recommend(c domain.CaseAttributes, priority int, candidates []domain.AgencyProfile, source string) (*domain.ROEResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if priority < 0 || priority > 100 {
		return nil, fmt.Errorf("%w: priority score must be within [0,100]", domain.ErrValidation)
	}

	if len(candidates) == 0 {
		candidates = []domain.AgencyProfile{FallbackAgency()}
		source = domain.SourceFallback
	}

	matches := make([]domain.AgencyMatch, 0, len(candidates))
	for _, agency := range candidates {
		score, reasons := MatchAgency(agency, c, priority)
		matches = append(matches, domain.AgencyMatch{
			AgencyID:             agency.ID,
			AgencyName:           agency.Name,
			MatchScore:           score,
			MatchReasons:         reasons,
			ExpectedRecoveryRate: round1(agency.RecoveryRate * 100),
			DataSource:           source,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	if len(matches) > 3 {
		matches = matches[:3]
	}

	roeScore := 50.0
	if matches[0].MatchScore >= 70 {
		roeScore += 20
	}
	if c.DaysPastDue <= 60 {
		roeScore += 15
	}
	if c.OutstandingAmount >= 5000 {
		roeScore += 15
	}
	if roeScore > 100 {
		roeScore = 100
	}

	return &domain.ROEResult{
		CaseID:              c.CaseID,
		ROEScore:            roeScore,
		RecommendedAgencies: matches,
		RecommendedActions:  recommendedActions(c.OutstandingAmount, c.DaysPastDue, priority),
		EscalationTimeline:  escalationTimeline(c.DaysPastDue, priority),
		OptimalStrategy:     optimalStrategy(priority, c.OutstandingAmount, c.Segment),
		DataSource:          source,
	}, nil
}
