// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/collectworks/harrier/internal/domain"
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveAgency upserts an agency with tenant isolation.
func (r *SQLRepository) SaveAgency(ctx context.Context, tenantID string, agency *domain.AgencyRecord) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `
		INSERT INTO agencies (
			id, tenant_id, name, code, recovery_rate,
			capacity_limit, capacity_used, performance_score, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			recovery_rate = excluded.recovery_rate,
			capacity_limit = excluded.capacity_limit,
			capacity_used = excluded.capacity_used,
			performance_score = excluded.performance_score,
			status = excluded.status
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		agency.ID, tenantID, agency.Name, agency.Code,
		agency.RecoveryRate, agency.CapacityLimit, agency.CapacityUsed,
		agency.PerformanceScore, agency.Status,
	)
	return err
}

// GetAgency retrieves an agency by ID with tenant isolation.
func (r *SQLRepository) GetAgency(ctx context.Context, tenantID string, agencyID string) (*domain.AgencyRecord, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `
		SELECT id, tenant_id, name, code, recovery_rate,
			   capacity_limit, capacity_used, performance_score, status
		FROM agencies
		WHERE tenant_id = ? AND id = ?
	`

	var a domain.AgencyRecord
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, agencyID).Scan(
		&a.ID, &a.TenantID, &a.Name, &a.Code, &a.RecoveryRate,
		&a.CapacityLimit, &a.CapacityUsed, &a.PerformanceScore, &a.Status,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// ListAgencies retrieves agencies for a tenant, optionally active only.
func (r *SQLRepository) ListAgencies(ctx context.Context, tenantID string, activeOnly bool) ([]*domain.AgencyRecord, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `
		SELECT id, tenant_id, name, code, recovery_rate,
			   capacity_limit, capacity_used, performance_score, status
		FROM agencies
		WHERE tenant_id = ?
	`
	args := []any{tenantID}
	if activeOnly {
		query += ` AND status = ?`
		args = append(args, domain.AgencyStatusActive)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agencies := []*domain.AgencyRecord{}
	for rows.Next() {
		var a domain.AgencyRecord
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.Name, &a.Code, &a.RecoveryRate,
			&a.CapacityLimit, &a.CapacityUsed, &a.PerformanceScore, &a.Status,
		); err != nil {
			return nil, err
		}
		agencies = append(agencies, &a)
	}

	return agencies, rows.Err()
}

// SaveCase upserts a case with tenant isolation.
func (r *SQLRepository) SaveCase(ctx context.Context, tenantID string, c *domain.CaseRecord) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO cases (
			id, tenant_id, case_number, customer_name,
			outstanding_amount, recovered_amount, days_past_due, segment,
			payment_history_score, previous_payments, priority, status,
			assigned_agency_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			case_number = excluded.case_number,
			customer_name = excluded.customer_name,
			outstanding_amount = excluded.outstanding_amount,
			recovered_amount = excluded.recovered_amount,
			days_past_due = excluded.days_past_due,
			segment = excluded.segment,
			payment_history_score = excluded.payment_history_score,
			previous_payments = excluded.previous_payments,
			priority = excluded.priority,
			status = excluded.status,
			assigned_agency_id = excluded.assigned_agency_id
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.ID, tenantID, c.CaseNumber, c.CustomerName,
		c.OutstandingAmount, c.RecoveredAmount, c.DaysPastDue, string(c.Segment),
		c.PaymentHistoryScore, c.PreviousPayments, c.Priority, c.Status,
		c.AssignedAgencyID, createdAt,
	)
	return err
}

const caseColumns = `id, tenant_id, case_number, customer_name,
		   outstanding_amount, recovered_amount, days_past_due, segment,
		   payment_history_score, previous_payments, priority, status,
		   assigned_agency_id, created_at`

func scanCase(rows interface{ Scan(...any) error }) (*domain.CaseRecord, error) {
	var c domain.CaseRecord
	var segment string
	var agencyID sql.NullString
	if err := rows.Scan(
		&c.ID, &c.TenantID, &c.CaseNumber, &c.CustomerName,
		&c.OutstandingAmount, &c.RecoveredAmount, &c.DaysPastDue, &segment,
		&c.PaymentHistoryScore, &c.PreviousPayments, &c.Priority, &c.Status,
		&agencyID, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.Segment = domain.Segment(segment)
	c.AssignedAgencyID = agencyID.String
	return &c, nil
}

// GetCase retrieves a case by ID with tenant isolation.
func (r *SQLRepository) GetCase(ctx context.Context, tenantID string, caseID string) (*domain.CaseRecord, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `SELECT ` + caseColumns + ` FROM cases WHERE tenant_id = ? AND id = ?`

	c, err := scanCase(r.db.QueryRowContext(ctx, r.rebind(query), tenantID, caseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCases retrieves cases matching the filter with tenant isolation.
func (r *SQLRepository) ListCases(ctx context.Context, tenantID string, filter domain.CaseFilter) ([]*domain.CaseRecord, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `SELECT ` + caseColumns + ` FROM cases WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Segment != "" {
		query += ` AND segment = ?`
		args = append(args, string(filter.Segment))
	}
	if filter.MinAmount > 0 {
		query += ` AND outstanding_amount >= ?`
		args = append(args, filter.MinAmount)
	}
	if filter.MaxAmount > 0 {
		query += ` AND outstanding_amount <= ?`
		args = append(args, filter.MaxAmount)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []*domain.CaseRecord{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// ListCasesForAgency retrieves cases assigned to an agency since a cutoff.
func (r *SQLRepository) ListCasesForAgency(ctx context.Context, tenantID string, agencyID string, since time.Time) ([]*domain.CaseRecord, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `SELECT ` + caseColumns + ` FROM cases
		WHERE tenant_id = ? AND assigned_agency_id = ? AND created_at >= ?
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, agencyID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []*domain.CaseRecord{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// SaveSLALog stores one SLA checkpoint outcome.
func (r *SQLRepository) SaveSLALog(ctx context.Context, tenantID string, log *domain.SLALog) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	checkedAt := log.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sla_logs (id, tenant_id, case_id, status, checked_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		log.ID, tenantID, log.CaseID, log.Status, checkedAt,
	)
	return err
}

// CountSLAOutcomes counts met and total SLA checkpoints across the cases.
func (r *SQLRepository) CountSLAOutcomes(ctx context.Context, tenantID string, caseIDs []string) (int, int, error) {
	if tenantID == "" {
		return 0, 0, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}
	if len(caseIDs) == 0 {
		return 0, 0, nil
	}

	placeholders := strings.Repeat("?, ", len(caseIDs))
	placeholders = placeholders[:len(placeholders)-2]

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COUNT(*)
		FROM sla_logs
		WHERE tenant_id = ? AND case_id IN (` + placeholders + `)
	`

	args := make([]any, 0, len(caseIDs)+2)
	args = append(args, domain.SLAMet, tenantID)
	for _, id := range caseIDs {
		args = append(args, id)
	}

	var met, total int
	if err := r.db.QueryRowContext(ctx, r.rebind(query), args...).Scan(&met, &total); err != nil {
		return 0, 0, err
	}
	return met, total, nil
}

// SaveAssessment stores a scoring result with tenant isolation.
func (r *SQLRepository) SaveAssessment(ctx context.Context, tenantID string, a *domain.Assessment) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `
		INSERT INTO assessments (
			id, tenant_id, kind, case_id, agency_id, score, payload, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		a.ID, tenantID, a.Kind, a.CaseID, a.AgencyID, a.Score,
		string(a.Payload), a.Timestamp,
	)
	return err
}

// GetAssessment retrieves an assessment by ID with tenant isolation.
func (r *SQLRepository) GetAssessment(ctx context.Context, tenantID string, assessmentID string) (*domain.Assessment, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `
		SELECT id, tenant_id, kind, case_id, agency_id, score, payload, timestamp
		FROM assessments
		WHERE tenant_id = ? AND id = ?
	`

	var a domain.Assessment
	var payload string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, assessmentID).Scan(
		&a.ID, &a.TenantID, &a.Kind, &a.CaseID, &a.AgencyID, &a.Score,
		&payload, &a.Timestamp,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Payload = []byte(payload)
	return &a, nil
}

// SavePolicy upserts an allocation policy with tenant isolation.
func (r *SQLRepository) SavePolicy(ctx context.Context, tenantID string, policy *domain.PolicyConfig) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	enabled := 0
	if policy.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO policies (
			id, tenant_id, name, description, version, expression, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id, version) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		policy.ID, tenantID, policy.Name, policy.Description,
		policy.Version, policy.Expression, enabled,
		now, now,
	)
	return err
}

// GetPolicy retrieves the latest enabled version of a policy.
func (r *SQLRepository) GetPolicy(ctx context.Context, tenantID string, policyID string) (*domain.PolicyConfig, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `
		SELECT id, tenant_id, name, description, version, expression, enabled, created_at, updated_at
		FROM policies
		WHERE tenant_id = ? AND id = ? AND enabled = 1
		ORDER BY version DESC
		LIMIT 1
	`

	var p domain.PolicyConfig
	var enabled int
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, policyID).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description,
		&p.Version, &p.Expression, &enabled,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Enabled = enabled == 1
	return &p, nil
}

// ListPolicies retrieves all enabled policies for a tenant.
func (r *SQLRepository) ListPolicies(ctx context.Context, tenantID string) ([]*domain.PolicyConfig, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `
		SELECT id, tenant_id, name, description, version, expression, enabled, created_at, updated_at
		FROM policies
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := []*domain.PolicyConfig{}
	for rows.Next() {
		var p domain.PolicyConfig
		var enabled int
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.Name, &p.Description,
			&p.Version, &p.Expression, &enabled,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.Enabled = enabled == 1
		policies = append(policies, &p)
	}

	return policies, rows.Err()
}

// DeletePolicy soft-deletes a policy by setting enabled = 0.
func (r *SQLRepository) DeletePolicy(ctx context.Context, tenantID string, policyID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", domain.ErrValidation)
	}

	query := `
		UPDATE policies
		SET enabled = 0, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND enabled = 1
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), tenantID, policyID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
