package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/collectworks/harrier/internal/domain"
	"github.com/collectworks/harrier/internal/metrics"
	"github.com/collectworks/harrier/internal/policy"
	"github.com/collectworks/harrier/internal/scoring"
)

// GlobalTenantID is used for allocation policies that apply to all tenants.
const GlobalTenantID = "*"

// rosterTTL bounds how stale the cached active-agency roster may be.
const rosterTTL = 5 * time.Minute

// counterWindow is the rolling window for per-tenant request counters.
const counterWindow = 24 * time.Hour

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	policies *policy.Engine
	metrics  *metrics.Service
	version  string

	started      time.Time
	requests     atomic.Int64
	asyncPersist atomic.Bool
}

// SetAsyncPersistence marks whether an async worker is consuming assessment
// events. While set, scoring handlers publish and skip the inline save; the
// worker owns the write. Without it the handler saves assessments itself, so
// GET /assessments/{id} works in every configuration.
func (h *Handler) SetAsyncPersistence(enabled bool) {
	h.asyncPersist.Store(enabled)
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, policies *policy.Engine, metricsService *metrics.Service, version string) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		bus:      bus,
		policies: policies,
		metrics:  metricsService,
		version:  version,
		started:  time.Now(),
	}
}

// CaseRequest is the wire shape for a collection case. PaymentHistoryScore
// defaults to 50 when omitted; Segment falls back to the default weight when
// unrecognized.
type CaseRequest struct {
	CaseID              string   `json:"caseId,omitempty"`
	OutstandingAmount   float64  `json:"outstandingAmount"`
	DaysPastDue         int      `json:"daysPastDue"`
	Segment             string   `json:"segment"`
	PaymentHistoryScore *float64 `json:"paymentHistoryScore,omitempty"`
	PreviousPayments    int      `json:"previousPayments"`
}

func (r CaseRequest) attributes() domain.CaseAttributes {
	history := 50.0
	if r.PaymentHistoryScore != nil {
		history = *r.PaymentHistoryScore
	}
	return domain.CaseAttributes{
		CaseID:              r.CaseID,
		OutstandingAmount:   r.OutstandingAmount,
		DaysPastDue:         r.DaysPastDue,
		Segment:             domain.ParseSegment(r.Segment),
		PaymentHistoryScore: history,
		PreviousPayments:    r.PreviousPayments,
	}
}

// ScoreResponse wraps a scorer result with processing metadata.
type ScoreResponse struct {
	Result   interface{}               `json:"result"`
	Metadata domain.AssessmentMetadata `json:"metadata"`
}

// ScorePriority handles POST /api/v1/priority/score.
func (h *Handler) ScorePriority(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	h.countRequest(r)

	var req CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}

	result, err := scoring.ScorePriority(req.attributes())
	if err != nil {
		h.writeError(w, err)
		return
	}

	assessmentID := h.recordAssessment(r, tenantID, domain.AssessmentPriority, result.CaseID, "", float64(result.PriorityScore), result, domain.TopicCaseAssessed)

	md := h.metadata(ctx, start)
	md.AssessmentID = assessmentID
	writeJSON(w, http.StatusOK, ScoreResponse{
		Result:   result,
		Metadata: md,
	})
}

// BatchScoreRequest is the request body for batch scoring endpoints.
type BatchScoreRequest struct {
	Cases []CaseRequest `json:"cases"`
}

// ScorePriorityBatch handles POST /api/v1/priority/batch. Invalid items carry
// per-item errors; the batch itself always succeeds.
func (h *Handler) ScorePriorityBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.countRequest(r)

	var req BatchScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}
	if len(req.Cases) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cases is required"})
		return
	}

	cases := make([]domain.CaseAttributes, 0, len(req.Cases))
	for _, c := range req.Cases {
		cases = append(cases, c.attributes())
	}

	results := scoring.ScorePriorityBatch(cases)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":  results,
		"count":    len(results),
		"metadata": h.metadata(ctx, start),
	})
}

// RecoveryRequest is the request body for recovery prediction. AgencyID is
// the assigned agency; its stored recovery rate feeds the prediction, with
// the default rate backing lookup failures.
type RecoveryRequest struct {
	CaseRequest
	AgencyID string `json:"agencyId,omitempty"`
}

// PredictRecovery handles POST /api/v1/predict/recovery.
func (h *Handler) PredictRecovery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	h.countRequest(r)

	var req RecoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}

	rate := h.agencyRate(r, tenantID, req.AgencyID)

	result, err := scoring.PredictRecovery(req.attributes(), rate)
	if err != nil {
		h.writeError(w, err)
		return
	}

	assessmentID := h.recordAssessment(r, tenantID, domain.AssessmentRecovery, result.CaseID, req.AgencyID, result.RecoveryProbability, result, domain.TopicCaseAssessed)

	md := h.metadata(ctx, start)
	md.AssessmentID = assessmentID
	writeJSON(w, http.StatusOK, ScoreResponse{
		Result:   result,
		Metadata: md,
	})
}

// RecoveryBatchRequest is the request body for POST /api/v1/predict/batch.
type RecoveryBatchRequest struct {
	Cases    []CaseRequest `json:"cases"`
	AgencyID string        `json:"agencyId,omitempty"`
}

// PredictRecoveryBatch handles POST /api/v1/predict/batch. Aggregates are
// computed over the successfully predicted items only.
func (h *Handler) PredictRecoveryBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	h.countRequest(r)

	var req RecoveryBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}
	if len(req.Cases) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cases is required"})
		return
	}

	rate := h.agencyRate(r, tenantID, req.AgencyID)

	inputs := make([]scoring.RecoveryBatchInput, 0, len(req.Cases))
	for _, c := range req.Cases {
		inputs = append(inputs, scoring.RecoveryBatchInput{Case: c.attributes(), DCARate: rate})
	}

	results, summary := scoring.PredictRecoveryBatch(inputs)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":  results,
		"count":    len(results),
		"summary":  summary,
		"metadata": h.metadata(ctx, start),
	})
}

// ROERequest is the request body for POST /api/v1/recommend/roe.
// PriorityScore is optional; when omitted the priority scorer runs first.
type ROERequest struct {
	CaseRequest
	PriorityScore *int `json:"priorityScore,omitempty"`
}

// RecommendROE handles POST /api/v1/recommend/roe. Candidate agencies come
// from the cached roster, then the repository; when neither yields agencies
// the recommender degrades to its built-in fallback.
func (h *Handler) RecommendROE(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	h.countRequest(r)

	var req ROERequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}

	attrs := req.attributes()

	priority := 0
	if req.PriorityScore != nil {
		priority = *req.PriorityScore
	} else {
		pr, err := scoring.ScorePriority(attrs)
		if err != nil {
			h.writeError(w, err)
			return
		}
		priority = pr.PriorityScore
	}

	candidates, source := h.candidateProfiles(r, tenantID)

	// Allocation policies screen eligibility only. Evaluation errors fail
	// open; a broken policy must not empty the candidate pool.
	if h.policies != nil && len(candidates) > 0 {
		filtered, err := h.policies.Filter(attrs, candidates)
		if err != nil {
			slog.Warn("policy evaluation error, failing open",
				"tenant_id", tenantID,
				"error", err,
			)
		}
		candidates = filtered
	}

	result, err := scoring.Recommend(attrs, priority, candidates, source)
	if err != nil {
		h.writeError(w, err)
		return
	}

	assessmentID := h.recordAssessment(r, tenantID, domain.AssessmentROE, result.CaseID, "", result.ROEScore, result, domain.TopicCaseAssessed)

	md := h.metadata(ctx, start)
	md.AssessmentID = assessmentID
	writeJSON(w, http.StatusOK, ScoreResponse{
		Result:   result,
		Metadata: md,
	})
}

// ListAgencies handles GET /api/v1/recommend/agencies: the current candidate
// roster as matching profiles.
func (h *Handler) ListAgencies(w http.ResponseWriter, r *http.Request) {
	tenantID := GetTenantID(r.Context())

	profiles, source := h.candidateProfiles(r, tenantID)
	if len(profiles) == 0 {
		profiles = []domain.AgencyProfile{scoring.FallbackAgency()}
		source = domain.SourceFallback
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agencies":   profiles,
		"count":      len(profiles),
		"dataSource": source,
	})
}

// AnalyzeAgency handles GET /api/v1/analyze/agency/{id}?period_days=30.
func (h *Handler) AnalyzeAgency(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	agencyID := chi.URLParam(r, "id")
	h.countRequest(r)

	if agencyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agency id is required"})
		return
	}

	periodDays := 30
	if v := r.URL.Query().Get("period_days"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "period_days must be a positive integer"})
			return
		}
		periodDays = p
	}

	if h.metrics == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "metrics service not available"})
		return
	}

	m, err := h.metrics.PerformanceMetrics(ctx, tenantID, agencyID, periodDays)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := scoring.Analyze(*m, periodDays, domain.SourceDatabase)
	if err != nil {
		h.writeError(w, err)
		return
	}

	assessmentID := h.recordAssessment(r, tenantID, domain.AssessmentAnalysis, "", agencyID, float64(result.OverallScore), result, domain.TopicAgencyAnalyzed)

	md := h.metadata(ctx, start)
	md.AssessmentID = assessmentID
	writeJSON(w, http.StatusOK, ScoreResponse{
		Result:   result,
		Metadata: md,
	})
}

// maxCompareAgencies caps a single comparison request.
const maxCompareAgencies = 5

// CompareAgencies handles GET /api/v1/analyze/compare?agency_ids=a,b.
// Unknown agencies are skipped; if none survive the comparison is NotFound.
func (h *Handler) CompareAgencies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	h.countRequest(r)

	raw := r.URL.Query().Get("agency_ids")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agency_ids is required"})
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agency_ids is required"})
		return
	}
	if len(ids) > maxCompareAgencies {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at most 5 agencies can be compared"})
		return
	}

	if h.metrics == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "metrics service not available"})
		return
	}

	periodDays := 30
	analyses := make([]*domain.AnalysisResult, 0, len(ids))
	for _, id := range ids {
		m, err := h.metrics.PerformanceMetrics(ctx, tenantID, id, periodDays)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			h.writeError(w, err)
			return
		}
		a, err := scoring.Analyze(*m, periodDays, domain.SourceDatabase)
		if err != nil {
			h.writeError(w, err)
			return
		}
		analyses = append(analyses, a)
	}

	if len(analyses) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no requested agencies found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ranking":  scoring.RankAnalyses(analyses),
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// AnalyzeHealth handles GET /api/v1/analyze/health: reachability of the data
// sources the analyzer depends on.
func (h *Handler) AnalyzeHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "healthy"
	database := "connected"
	if h.repo == nil {
		status = "degraded"
		database = "not configured"
	} else if err := h.repo.Ping(ctx); err != nil {
		status = "degraded"
		database = "unavailable"
	}

	cacheState := "connected"
	if h.cache == nil {
		cacheState = "not configured"
	} else if err := h.cache.Ping(ctx); err != nil {
		status = "degraded"
		cacheState = "unavailable"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"database": database,
		"cache":    cacheState,
	})
}

// SaveCase handles POST /api/v1/cases: upserts a case record so recorded
// portfolios can back agency metrics and later re-scoring.
func (h *Handler) SaveCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "repository not available"})
		return
	}

	var rec domain.CaseRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if err := rec.Attributes().Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.repo.SaveCase(ctx, tenantID, &rec); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// GetCase handles GET /api/v1/cases/{id}.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	caseID := chi.URLParam(r, "id")

	if caseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "case id is required"})
		return
	}
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "repository not available"})
		return
	}

	rec, err := h.repo.GetCase(ctx, tenantID, caseID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ListCases handles GET /api/v1/cases with optional status, segment, and
// amount-range filters.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "repository not available"})
		return
	}

	q := r.URL.Query()
	filter := domain.CaseFilter{Status: q.Get("status")}
	if s := q.Get("segment"); s != "" {
		filter.Segment = domain.ParseSegment(s)
	}
	if v := q.Get("min_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "min_amount must be a non-negative number"})
			return
		}
		filter.MinAmount = f
	}
	if v := q.Get("max_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_amount must be a non-negative number"})
			return
		}
		filter.MaxAmount = f
	}

	cases, err := h.repo.ListCases(ctx, tenantID, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cases": cases,
		"count": len(cases),
	})
}

// GetAssessment handles GET /api/v1/assessments/{id}.
func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	assessmentID := chi.URLParam(r, "id")

	if assessmentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assessment id is required"})
		return
	}
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "repository not available"})
		return
	}

	a, err := h.repo.GetAssessment(ctx, tenantID, assessmentID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// ListPolicies returns all allocation policies loaded in the engine.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	if h.policies == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "policy engine not available"})
		return
	}

	loaded := h.policies.GetLoadedPolicies()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policies": loaded,
		"count":    len(loaded),
		"source":   "database",
	})
}

// CreatePolicyRequest is the request body for creating an allocation policy.
type CreatePolicyRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Expression  string `json:"expression"`
	Enabled     bool   `json:"enabled"`
}

// CreatePolicy validates and persists an allocation policy. Policies are
// saved globally so they apply to all tenants; call POST /policies/reload to
// activate.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.policies == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "policy engine not available"})
		return
	}

	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}
	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id, name, and expression are required"})
		return
	}

	cfg := &domain.PolicyConfig{
		ID:          req.ID,
		TenantID:    GlobalTenantID,
		Name:        req.Name,
		Description: req.Description,
		Version:     "1.0.0",
		Expression:  req.Expression,
		Enabled:     req.Enabled,
	}

	if err := h.policies.ValidatePolicy(cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid policy expression: " + err.Error()})
		return
	}

	if h.repo != nil {
		if err := h.repo.SavePolicy(ctx, GlobalTenantID, cfg); err != nil {
			slog.Error("failed to save policy", "id", cfg.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save policy"})
			return
		}
	}

	slog.Info("policy created", "id", cfg.ID, "name", cfg.Name)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"policy":  cfg,
		"message": "Policy created. Call POST /policies/reload to apply changes.",
	})
}

// GetPolicy handles GET /api/v1/policies/{id}. Disabled policies read as
// not found.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID := chi.URLParam(r, "id")

	if policyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "policy id is required"})
		return
	}
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "repository not available"})
		return
	}

	p, err := h.repo.GetPolicy(ctx, GlobalTenantID, policyID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// DeletePolicy handles DELETE /api/v1/policies/{id}. Policies are disabled
// rather than dropped, so the version history stays auditable; the engine
// keeps running the old set until the next reload.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID := chi.URLParam(r, "id")

	if policyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "policy id is required"})
		return
	}
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "repository not available"})
		return
	}

	if err := h.repo.DeletePolicy(ctx, GlobalTenantID, policyID); err != nil {
		h.writeError(w, err)
		return
	}

	slog.Info("policy disabled", "id", policyID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Policy disabled. Call POST /policies/reload to apply changes.",
	})
}

// ReloadPolicies reloads all allocation policies from the database into the
// engine. A failed reload keeps the previous policy set active.
func (h *Handler) ReloadPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "repository not available"})
		return
	}
	if h.policies == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "policy engine not available"})
		return
	}

	configs, err := h.repo.ListPolicies(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list policies from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load policies from database"})
		return
	}

	if err := h.policies.ReloadPolicies(configs); err != nil {
		slog.Error("failed to reload policies into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reload policies: " + err.Error()})
		return
	}

	if h.bus != nil {
		payload, _ := json.Marshal(map[string]int{"count": len(configs)})
		if err := h.bus.Publish(ctx, tenantID, domain.TopicPolicyReloaded, payload); err != nil {
			slog.Warn("failed to publish policy reload event", "error", err)
		}
	}

	slog.Info("policies reloaded from database", "count", len(configs))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "policies reloaded successfully",
		"count":   len(configs),
	})
}

// Stats handles GET /api/v1/stats. The process-wide request count sits next
// to the calling tenant's rolling-window counter, which survives across nodes
// when Redis backs the cache.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"version":       h.version,
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"requests":      h.requests.Load(),
	}

	if h.cache != nil {
		if tenantID := GetTenantID(r.Context()); tenantID != "" {
			n, err := h.cache.GetCounter(r.Context(), tenantID, "requests")
			if err != nil {
				slog.Debug("request counter read failed", "error", err)
			} else {
				stats["tenantRequests"] = n
			}
		}
	}

	if h.policies != nil {
		stats["policyCount"] = h.policies.PolicyCount()
	}
	if s, ok := h.cache.(interface{ Stats() (int, int) }); ok {
		size, capacity := s.Stats()
		stats["cacheSize"] = size
		stats["cacheCapacity"] = capacity
	}

	writeJSON(w, http.StatusOK, stats)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// agencyRate resolves an agency's stored recovery rate, backing lookup
// failures with the default rate so prediction never blocks on storage.
func (h *Handler) agencyRate(r *http.Request, tenantID, agencyID string) float64 {
	if agencyID == "" || h.repo == nil {
		return scoring.DefaultDCARate
	}

	agency, err := h.repo.GetAgency(r.Context(), tenantID, agencyID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("agency lookup failed, using default rate",
				"agency_id", agencyID,
				"error", err,
			)
		}
		return scoring.DefaultDCARate
	}
	if agency.RecoveryRate <= 0 {
		return scoring.DefaultDCARate
	}
	return agency.RecoveryRate
}

// candidateProfiles assembles the active-agency roster: cache first, then
// the repository (repopulating the cache). Empty or failed fetches return
// nil so the recommender degrades to its fallback.
func (h *Handler) candidateProfiles(r *http.Request, tenantID string) ([]domain.AgencyProfile, string) {
	ctx := r.Context()

	var records []*domain.AgencyRecord

	if h.cache != nil {
		roster, err := h.cache.GetAgencyRoster(ctx, tenantID)
		if err == nil && roster != nil {
			records = roster.Agencies
		}
	}

	if records == nil && h.repo != nil {
		fetched, err := h.repo.ListAgencies(ctx, tenantID, true)
		if err != nil {
			slog.Warn("agency roster fetch failed, degrading to fallback",
				"tenant_id", tenantID,
				"error", err,
			)
			return nil, domain.SourceFallback
		}
		records = fetched

		if h.cache != nil && len(records) > 0 {
			roster := &domain.AgencyRoster{Agencies: records, FetchedAt: time.Now().UTC()}
			if err := h.cache.SetAgencyRoster(ctx, tenantID, roster, rosterTTL); err != nil {
				slog.Warn("failed to cache agency roster", "error", err)
			}
		}
	}

	if len(records) == 0 {
		return nil, domain.SourceFallback
	}

	profiles := make([]domain.AgencyProfile, 0, len(records))
	for _, rec := range records {
		profiles = append(profiles, scoring.BuildProfile(rec))
	}
	return profiles, domain.SourceDatabase
}

// recordAssessment persists a scoring result and returns its ID. The event
// is always published when a bus is wired; the row is saved inline unless an
// async worker has taken over persistence. A failed publish falls back to the
// inline save so the record is never silently lost.
func (h *Handler) recordAssessment(r *http.Request, tenantID, kind, caseID, agencyID string, score float64, result interface{}, topic string) string {
	ctx := r.Context()

	payload, err := json.Marshal(result)
	if err != nil {
		slog.Error("failed to serialize assessment payload", "kind", kind, "error", err)
		return ""
	}

	assessment := &domain.Assessment{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Kind:      kind,
		CaseID:    caseID,
		AgencyID:  agencyID,
		Score:     score,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	if h.bus != nil {
		if msg, err := json.Marshal(assessment); err == nil {
			if err := h.bus.Publish(ctx, tenantID, topic, msg); err != nil {
				slog.Warn("failed to publish assessment event", "kind", kind, "error", err)
			} else if h.asyncPersist.Load() {
				return assessment.ID
			}
		}
	}

	if h.repo == nil {
		return ""
	}
	if err := h.repo.SaveAssessment(ctx, tenantID, assessment); err != nil {
		slog.Error("failed to save assessment", "kind", kind, "error", err)
		return ""
	}
	return assessment.ID
}

// countRequest tracks request volume in-process and in the shared cache
// counter (visible across nodes when Redis backs the cache).
func (h *Handler) countRequest(r *http.Request) {
	h.requests.Add(1)

	if h.cache == nil {
		return
	}
	tenantID := GetTenantID(r.Context())
	if tenantID == "" {
		return
	}
	if _, err := h.cache.IncrementCounter(r.Context(), tenantID, "requests", counterWindow); err != nil {
		slog.Debug("request counter increment failed", "error", err)
	}
}

// metadata builds the processing metadata block for scoring responses.
func (h *Handler) metadata(ctx context.Context, start time.Time) domain.AssessmentMetadata {
	return domain.AssessmentMetadata{
		TraceID:       GetTraceID(ctx),
		ProcessMs:     time.Since(start).Milliseconds(),
		EngineVersion: h.version,
	}
}

// writeError maps domain sentinel errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
