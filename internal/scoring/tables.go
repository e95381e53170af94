// Package scoring implements the deterministic scoring and recommendation
// engine: priority scoring, recovery prediction, return-on-effort agency
// matching, and agency performance analysis. Every function here is a pure
// transformation of its inputs; collaborator data arrives pre-fetched.
package scoring

import "github.com/collectworks/harrier/internal/domain"

// Priority factor weights. Must sum to 1.0.
var priorityWeights = struct {
	Amount  float64
	Days    float64
	Segment float64
	History float64
}{
	Amount:  0.35,
	Days:    0.30,
	Segment: 0.20,
	History: 0.15,
}

// Segment scores for priority calculation. Unknown segments fall back to
// defaultSegmentScore.
var segmentScores = map[domain.Segment]float64{
	domain.SegmentEnterprise: 100,
	domain.SegmentLarge:      80,
	domain.SegmentMedium:     60,
	domain.SegmentSmall:      40,
	domain.SegmentMicro:      20,
}

const defaultSegmentScore = 50

// Recovery base rates per age bracket.
var recoveryBaseRates = map[string]float64{
	"0-30":   0.85,
	"31-60":  0.70,
	"61-90":  0.55,
	"91-180": 0.35,
	"180+":   0.15,
}

// Segment modifiers for recovery probability. Unknown segments use 1.0.
var segmentModifiers = map[domain.Segment]float64{
	domain.SegmentEnterprise: 1.2,
	domain.SegmentLarge:      1.1,
	domain.SegmentMedium:     1.0,
	domain.SegmentSmall:      0.9,
	domain.SegmentMicro:      0.8,
}

// Recovery probability clamp bounds.
const (
	minProbability = 0.05
	maxProbability = 0.95
)

// Industry averages used for performance comparison, as percentages.
var industryAverages = struct {
	RecoveryRate        float64
	SLACompliance       float64
	CapacityUtilization float64
}{
	RecoveryRate:        65.0,
	SLACompliance:       88.0,
	CapacityUtilization: 70.0,
}

// DefaultDCARate is the assumed agency recovery rate when none is supplied
// to the recovery predictor.
const DefaultDCARate = 0.65

// Specialty tags derived for database-shaped agency records.
const (
	SpecialtyHighVolume = "HIGH_VOLUME"
	SpecialtyHighValue  = "HIGH_VALUE"
	SpecialtyLegal      = "LEGAL"
)

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
