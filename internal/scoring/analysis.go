package scoring

import (
	"fmt"
	"sort"

	"github.com/collectworks/harrier/internal/domain"
)

// PerformanceGrade converts an overall score to a letter grade.
func PerformanceGrade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 85:
		return "A"
	case score >= 80:
		return "A-"
	case score >= 75:
		return "B+"
	case score >= 70:
		return "B"
	case score >= 65:
		return "B-"
	case score >= 60:
		return "C+"
	case score >= 55:
		return "C"
	default:
		return "D"
	}
}

// overallScore uses the stored performance score when present, otherwise
// derives one from the weighted metric components.
func overallScore(m domain.PerformanceMetrics) int {
	if m.PerformanceScore != 0 {
		return int(m.PerformanceScore)
	}
	util := m.CapacityUtilization()
	if util > 1 {
		util = 1
	}
	return int(m.RecoveryRate*35 + m.SLACompliance*35 + util*30)
}

// singlePoint builds a one-sample trend. Historical readings are not kept
// yet, so every metric reports a stable trend off its current value.
// TODO: back trends with assessment history once enough periods accumulate.
func singlePoint(value float64) []domain.TrendPoint {
	return []domain.TrendPoint{{Period: "Current", Value: value}}
}

func metricReadings(m domain.PerformanceMetrics) []domain.MetricReading {
	recovery := round1(m.RecoveryRate * 100)
	sla := round1(m.SLACompliance * 100)
	util := round1(m.CapacityUtilization() * 100)
	handled := float64(m.CasesHandled)

	return []domain.MetricReading{
		{
			Name:          "Recovery Rate",
			CurrentValue:  recovery,
			PreviousValue: round1(m.RecoveryRate * 100 * 0.95),
			ChangePercent: 5.0,
			Trend:         "stable",
			TrendData:     singlePoint(recovery),
		},
		{
			Name:          "SLA Compliance",
			CurrentValue:  sla,
			PreviousValue: sla,
			ChangePercent: 0.0,
			Trend:         "stable",
			TrendData:     singlePoint(sla),
		},
		{
			Name:          "Capacity Utilization",
			CurrentValue:  util,
			PreviousValue: util,
			ChangePercent: 0.0,
			Trend:         "stable",
			TrendData:     singlePoint(util),
		},
		{
			Name:          "Cases Handled",
			CurrentValue:  handled,
			PreviousValue: handled,
			ChangePercent: 0.0,
			Trend:         "stable",
			TrendData:     singlePoint(handled),
		},
	}
}

// improvementRecommendations applies threshold rules to each metric. The
// capacity rules are mutually exclusive; the monthly-review item is always
// appended last.
func improvementRecommendations(recoveryRate, slaCompliance, utilization float64) []domain.ImprovementRecommendation {
	var recs []domain.ImprovementRecommendation

	if recoveryRate < 0.7 {
		recs = append(recs, domain.ImprovementRecommendation{
			Area:           "Recovery Rate",
			CurrentState:   fmt.Sprintf("%.1f%% recovery rate", recoveryRate*100),
			Recommendation: "Implement tiered escalation process with defined triggers",
			ExpectedImpact: "+10-15% recovery rate improvement",
			Priority:       domain.ActionHigh,
		})
	}

	if slaCompliance < 0.9 {
		recs = append(recs, domain.ImprovementRecommendation{
			Area:           "SLA Compliance",
			CurrentState:   fmt.Sprintf("%.1f%% SLA compliance", slaCompliance*100),
			Recommendation: "Add automated SLA tracking with early warning alerts",
			ExpectedImpact: "Reduce SLA breaches by 50%",
			Priority:       domain.ActionHigh,
		})
	}

	if utilization < 0.5 {
		recs = append(recs, domain.ImprovementRecommendation{
			Area:           "Capacity Utilization",
			CurrentState:   fmt.Sprintf("%.0f%% capacity utilized", utilization*100),
			Recommendation: "Consider accepting more cases or reallocating resources",
			ExpectedImpact: "Better ROI on agency relationship",
			Priority:       domain.ActionMedium,
		})
	} else if utilization > 0.9 {
		recs = append(recs, domain.ImprovementRecommendation{
			Area:           "Capacity Overload",
			CurrentState:   fmt.Sprintf("%.0f%% capacity utilized", utilization*100),
			Recommendation: "Consider redistributing cases to prevent quality issues",
			ExpectedImpact: "Maintain recovery quality",
			Priority:       domain.ActionHigh,
		})
	}

	recs = append(recs, domain.ImprovementRecommendation{
		Area:           "Process Optimization",
		CurrentState:   "Regular review recommended",
		Recommendation: "Conduct monthly performance reviews with agency leadership",
		ExpectedImpact: "Continuous improvement in all metrics",
		Priority:       domain.ActionStandard,
	})

	return recs
}

func strengthsAndWeaknesses(recoveryRate, slaCompliance, utilization float64) (strengths, weaknesses []string) {
	if recoveryRate >= 0.75 {
		strengths = append(strengths, fmt.Sprintf("Strong recovery rate: %.1f%%", recoveryRate*100))
	} else if recoveryRate < 0.6 {
		weaknesses = append(weaknesses, fmt.Sprintf("Recovery rate below target: %.1f%%", recoveryRate*100))
	}

	if slaCompliance >= 0.95 {
		strengths = append(strengths, fmt.Sprintf("Excellent SLA compliance: %.1f%%", slaCompliance*100))
	} else if slaCompliance < 0.85 {
		weaknesses = append(weaknesses, fmt.Sprintf("SLA compliance needs improvement: %.1f%%", slaCompliance*100))
	}

	switch {
	case utilization >= 0.6 && utilization <= 0.85:
		strengths = append(strengths, "Optimal capacity utilization")
	case utilization > 0.9:
		weaknesses = append(weaknesses, "Near capacity limit - risk of quality issues")
	case utilization < 0.4:
		weaknesses = append(weaknesses, "Underutilized capacity")
	}

	if len(strengths) == 0 {
		strengths = []string{"No significant strengths identified"}
	}
	if len(weaknesses) == 0 {
		weaknesses = []string{"No significant weaknesses identified"}
	}
	return strengths, weaknesses
}

func industryComparison(recoveryRate, slaCompliance, utilization float64) map[string]string {
	return map[string]string{
		"recovery_rate":        fmt.Sprintf("%+.1f%% vs industry avg", recoveryRate*100-industryAverages.RecoveryRate),
		"sla_compliance":       fmt.Sprintf("%+.1f%% vs industry avg", slaCompliance*100-industryAverages.SLACompliance),
		"capacity_utilization": fmt.Sprintf("%+.1f%% vs industry avg", utilization*100-industryAverages.CapacityUtilization),
	}
}

// Analyze builds the full performance analysis for one agency from its
// pre-aggregated trailing-window metrics.
func Analyze(m domain.PerformanceMetrics, periodDays int, source string) (*domain.AnalysisResult, error) {
	if periodDays <= 0 {
		return nil, fmt.Errorf("%w: analysis period must be positive", domain.ErrValidation)
	}

	util := m.CapacityUtilization()
	score := overallScore(m)
	strengths, weaknesses := strengthsAndWeaknesses(m.RecoveryRate, m.SLACompliance, util)

	name := m.Name
	if name == "" {
		id := m.AgencyID
		if len(id) > 8 {
			id = id[:8]
		}
		name = "Agency " + id
	}

	return &domain.AnalysisResult{
		AgencyID:            m.AgencyID,
		AgencyName:          name,
		AnalysisPeriod:      fmt.Sprintf("Last %d days", periodDays),
		OverallScore:        score,
		PerformanceGrade:    PerformanceGrade(score),
		Metrics:             metricReadings(m),
		Recommendations:     improvementRecommendations(m.RecoveryRate, m.SLACompliance, util),
		ComparisonToAverage: industryComparison(m.RecoveryRate, m.SLACompliance, util),
		Strengths:           strengths,
		Weaknesses:          weaknesses,
		DataSource:          source,
	}, nil
}

// RankAnalyses orders analyses by overall score, best first, and builds the
// ranking summary alongside.
func RankAnalyses(analyses []*domain.AnalysisResult) []domain.RankedAgency {
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].OverallScore > analyses[j].OverallScore
	})
	ranking := make([]domain.RankedAgency, 0, len(analyses))
	for _, a := range analyses {
		ranking = append(ranking, domain.RankedAgency{
			AgencyID: a.AgencyID,
			Score:    a.OverallScore,
			Grade:    a.PerformanceGrade,
		})
	}
	return ranking
}
