package domain

// AgencyRecord is a collection agency as stored by the repository.
type AgencyRecord struct {
	ID               string  `json:"id"`
	TenantID         string  `json:"tenantId"`
	Name             string  `json:"name"`
	Code             string  `json:"code,omitempty"`
	RecoveryRate     float64 `json:"recoveryRate"` // fraction, 0-1
	CapacityLimit    int     `json:"capacityLimit"`
	CapacityUsed     int     `json:"capacityUsed"`
	PerformanceScore float64 `json:"performanceScore"` // 0-100, 0 = not computed
	Status           string  `json:"status"`
}

// CapacityAvailable returns limit minus used, floored at zero.
func (a AgencyRecord) CapacityAvailable() int {
	avail := a.CapacityLimit - a.CapacityUsed
	if avail < 0 {
		return 0
	}
	return avail
}

// Agency status values.
const (
	AgencyStatusActive   = "ACTIVE"
	AgencyStatusInactive = "INACTIVE"
)

// AgencyProfile is the matching-shaped view of an agency: a record plus
// derived specialties and matching thresholds. Built by the recommender,
// never stored.
type AgencyProfile struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Specialties       []string `json:"specialties"`
	RecoveryRate      float64  `json:"recoveryRate"`
	CapacityAvailable int      `json:"capacityAvailable"`
	MinAmount         float64  `json:"minAmount"`
	PerformanceScore  float64  `json:"performanceScore"`
}

// HasSpecialty reports whether the profile carries the given tag.
func (p AgencyProfile) HasSpecialty(tag string) bool {
	for _, s := range p.Specialties {
		if s == tag {
			return true
		}
	}
	return false
}

// PerformanceMetrics aggregates an agency's outcomes over a trailing window.
// Produced by the metrics service from cases and SLA logs.
type PerformanceMetrics struct {
	AgencyID         string  `json:"agencyId"`
	Name             string  `json:"name"`
	RecoveryRate     float64 `json:"recoveryRate"`  // fraction, 0-1
	SLACompliance    float64 `json:"slaCompliance"` // fraction, 0-1
	PerformanceScore float64 `json:"performanceScore"`
	CasesHandled     int     `json:"casesHandled"`
	TotalOutstanding float64 `json:"totalOutstanding"`
	TotalRecovered   float64 `json:"totalRecovered"`
	CapacityUsed     int     `json:"capacityUsed"`
	CapacityLimit    int     `json:"capacityLimit"`
}

// CapacityUtilization returns used/limit, guarding the zero-limit case.
func (m PerformanceMetrics) CapacityUtilization() float64 {
	if m.CapacityLimit <= 0 {
		return 0
	}
	return float64(m.CapacityUsed) / float64(m.CapacityLimit)
}
