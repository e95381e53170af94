package domain

// TrendPoint is one point in a metric trend series.
type TrendPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// MetricReading is a performance metric with trend context.
type MetricReading struct {
	Name          string       `json:"name"`
	CurrentValue  float64      `json:"currentValue"`
	PreviousValue float64      `json:"previousValue"`
	ChangePercent float64      `json:"changePercent"`
	Trend         string       `json:"trend"`
	TrendData     []TrendPoint `json:"trendData"`
}

// ImprovementRecommendation suggests a performance improvement for an agency.
type ImprovementRecommendation struct {
	Area           string `json:"area"`
	CurrentState   string `json:"currentState"`
	Recommendation string `json:"recommendation"`
	ExpectedImpact string `json:"expectedImpact"`
	Priority       string `json:"priority"`
}

// AnalysisResult is the output of the agency performance analyzer.
type AnalysisResult struct {
	AgencyID            string                      `json:"agencyId"`
	AgencyName          string                      `json:"agencyName"`
	AnalysisPeriod      string                      `json:"analysisPeriod"`
	OverallScore        int                         `json:"overallScore"`
	PerformanceGrade    string                      `json:"performanceGrade"`
	Metrics             []MetricReading             `json:"metrics"`
	Recommendations     []ImprovementRecommendation `json:"recommendations"`
	ComparisonToAverage map[string]string           `json:"comparisonToAverage"`
	Strengths           []string                    `json:"strengths"`
	Weaknesses          []string                    `json:"weaknesses"`
	DataSource          string                      `json:"dataSource"`
}

// RankedAgency is one entry in a multi-agency comparison ranking.
type RankedAgency struct {
	AgencyID string `json:"agencyId"`
	Score    int    `json:"score"`
	Grade    string `json:"grade"`
}
