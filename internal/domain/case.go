package domain

import (
	"fmt"
	"strings"
	"time"
)

// Segment classifies a customer by size/tier. Scoring tables key off it.
type Segment string

const (
	SegmentEnterprise Segment = "ENTERPRISE"
	SegmentLarge      Segment = "LARGE"
	SegmentMedium     Segment = "MEDIUM"
	SegmentSmall      Segment = "SMALL"
	SegmentMicro      Segment = "MICRO"

	// SegmentUnknown is the fallback for unrecognized values. Scorers map it
	// to their documented default weight rather than rejecting the input.
	SegmentUnknown Segment = "UNKNOWN"
)

// ParseSegment matches case-insensitively and falls back to SegmentUnknown.
func ParseSegment(s string) Segment {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENTERPRISE":
		return SegmentEnterprise
	case "LARGE":
		return SegmentLarge
	case "MEDIUM":
		return SegmentMedium
	case "SMALL":
		return SegmentSmall
	case "MICRO":
		return SegmentMicro
	default:
		return SegmentUnknown
	}
}

// IsLargeTier reports whether the segment is ENTERPRISE or LARGE.
// Several strategy ladders branch on this pair.
func (s Segment) IsLargeTier() bool {
	return s == SegmentEnterprise || s == SegmentLarge
}

// CaseAttributes is the immutable scoring input for a collection case.
// CaseID is opaque: it is echoed into results and never resolved against
// storage.
type CaseAttributes struct {
	CaseID              string  `json:"caseId,omitempty"`
	OutstandingAmount   float64 `json:"outstandingAmount"`
	DaysPastDue         int     `json:"daysPastDue"`
	Segment             Segment `json:"segment"`
	PaymentHistoryScore float64 `json:"paymentHistoryScore"`
	PreviousPayments    int     `json:"previousPayments"`
}

// Validate rejects malformed numeric input before any scoring runs.
func (c CaseAttributes) Validate() error {
	if c.OutstandingAmount < 0 {
		return fmt.Errorf("%w: outstanding amount must be non-negative", ErrValidation)
	}
	if c.DaysPastDue < 0 {
		return fmt.Errorf("%w: days past due must be non-negative", ErrValidation)
	}
	if c.PaymentHistoryScore < 0 || c.PaymentHistoryScore > 100 {
		return fmt.Errorf("%w: payment history score must be within [0,100]", ErrValidation)
	}
	if c.PreviousPayments < 0 {
		return fmt.Errorf("%w: previous payments must be non-negative", ErrValidation)
	}
	return nil
}

// CaseRecord is a persisted case row, as stored by the repository.
type CaseRecord struct {
	ID                  string    `json:"id"`
	TenantID            string    `json:"tenantId"`
	CaseNumber          string    `json:"caseNumber"`
	CustomerName        string    `json:"customerName"`
	Segment             Segment   `json:"segment"`
	OutstandingAmount   float64   `json:"outstandingAmount"`
	RecoveredAmount     float64   `json:"recoveredAmount"`
	DaysPastDue         int       `json:"daysPastDue"`
	PaymentHistoryScore float64   `json:"paymentHistoryScore"`
	PreviousPayments    int       `json:"previousPayments"`
	Priority            int       `json:"priority"`
	Status              string    `json:"status"`
	AssignedAgencyID    string    `json:"assignedAgencyId,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Attributes projects the stored row onto the scoring input shape.
func (r CaseRecord) Attributes() CaseAttributes {
	return CaseAttributes{
		CaseID:              r.ID,
		OutstandingAmount:   r.OutstandingAmount,
		DaysPastDue:         r.DaysPastDue,
		Segment:             r.Segment,
		PaymentHistoryScore: r.PaymentHistoryScore,
		PreviousPayments:    r.PreviousPayments,
	}
}

// CaseFilter selects cases from the repository.
type CaseFilter struct {
	Status    string
	Segment   Segment
	MinAmount float64
	MaxAmount float64 // 0 means unbounded
}
