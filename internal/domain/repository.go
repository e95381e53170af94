// Package domain defines the core types and interfaces for Harrier.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
//
// Fetch semantics: (rows, nil) is success, (empty, nil) means no rows,
// (nil, err) means the data source failed. Callers must not conflate the
// last two.
type Repository interface {
	// Agency operations
	SaveAgency(ctx context.Context, tenantID string, agency *AgencyRecord) error
	GetAgency(ctx context.Context, tenantID string, agencyID string) (*AgencyRecord, error)
	ListAgencies(ctx context.Context, tenantID string, activeOnly bool) ([]*AgencyRecord, error)

	// Case operations
	SaveCase(ctx context.Context, tenantID string, c *CaseRecord) error
	GetCase(ctx context.Context, tenantID string, caseID string) (*CaseRecord, error)
	ListCases(ctx context.Context, tenantID string, filter CaseFilter) ([]*CaseRecord, error)
	ListCasesForAgency(ctx context.Context, tenantID string, agencyID string, since time.Time) ([]*CaseRecord, error)

	// SLA log operations
	SaveSLALog(ctx context.Context, tenantID string, log *SLALog) error
	CountSLAOutcomes(ctx context.Context, tenantID string, caseIDs []string) (met int, total int, err error)

	// Assessment results
	SaveAssessment(ctx context.Context, tenantID string, a *Assessment) error
	GetAssessment(ctx context.Context, tenantID string, assessmentID string) (*Assessment, error)

	// Allocation policy operations
	SavePolicy(ctx context.Context, tenantID string, policy *PolicyConfig) error
	GetPolicy(ctx context.Context, tenantID string, policyID string) (*PolicyConfig, error)
	ListPolicies(ctx context.Context, tenantID string) ([]*PolicyConfig, error)
	DeletePolicy(ctx context.Context, tenantID string, policyID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// SLALog records one service-level-agreement checkpoint outcome for a case.
type SLALog struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	CaseID    string    `json:"caseId"`
	Status    string    `json:"status"` // "MET" or "MISSED"
	CheckedAt time.Time `json:"checkedAt"`
}

// SLA outcome values.
const (
	SLAMet    = "MET"
	SLAMissed = "MISSED"
)

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
