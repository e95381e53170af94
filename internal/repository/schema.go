package repository

// Schema definitions for the Harrier database.
// Compatible with both SQLite and PostgreSQL.

const schemaAgencies = `
CREATE TABLE IF NOT EXISTS agencies (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    code TEXT,
    recovery_rate REAL NOT NULL DEFAULT 0,
    capacity_limit INTEGER NOT NULL DEFAULT 0,
    capacity_used INTEGER NOT NULL DEFAULT 0,
    performance_score REAL NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'ACTIVE',
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_agencies_tenant ON agencies(tenant_id);
CREATE INDEX IF NOT EXISTS idx_agencies_status ON agencies(tenant_id, status);
`

const schemaCases = `
CREATE TABLE IF NOT EXISTS cases (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    case_number TEXT,
    customer_name TEXT,
    outstanding_amount REAL NOT NULL DEFAULT 0,
    recovered_amount REAL NOT NULL DEFAULT 0,
    days_past_due INTEGER NOT NULL DEFAULT 0,
    segment TEXT NOT NULL DEFAULT 'UNKNOWN',
    payment_history_score REAL NOT NULL DEFAULT 0,
    previous_payments INTEGER NOT NULL DEFAULT 0,
    priority INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'OPEN',
    assigned_agency_id TEXT,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_cases_tenant ON cases(tenant_id);
CREATE INDEX IF NOT EXISTS idx_cases_agency ON cases(tenant_id, assigned_agency_id, created_at);
CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(tenant_id, status);
CREATE INDEX IF NOT EXISTS idx_cases_segment ON cases(tenant_id, segment);
`

const schemaSLALogs = `
CREATE TABLE IF NOT EXISTS sla_logs (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    case_id TEXT NOT NULL,
    status TEXT NOT NULL,
    checked_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sla_logs_tenant ON sla_logs(tenant_id);
CREATE INDEX IF NOT EXISTS idx_sla_logs_case ON sla_logs(tenant_id, case_id);
`

const schemaAssessments = `
CREATE TABLE IF NOT EXISTS assessments (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    case_id TEXT,
    agency_id TEXT,
    score REAL NOT NULL DEFAULT 0,
    payload TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_tenant ON assessments(tenant_id);
CREATE INDEX IF NOT EXISTS idx_assessments_case ON assessments(tenant_id, case_id);
CREATE INDEX IF NOT EXISTS idx_assessments_kind ON assessments(tenant_id, kind);
CREATE INDEX IF NOT EXISTS idx_assessments_timestamp ON assessments(tenant_id, timestamp);
`

const schemaPolicies = `
CREATE TABLE IF NOT EXISTS policies (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    expression TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id, version)
);

CREATE INDEX IF NOT EXISTS idx_policies_tenant ON policies(tenant_id);
CREATE INDEX IF NOT EXISTS idx_policies_enabled ON policies(tenant_id, enabled);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaAgencies,
		schemaCases,
		schemaSLALogs,
		schemaAssessments,
		schemaPolicies,
	}
}
