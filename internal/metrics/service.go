// Package metrics aggregates trailing-window agency performance metrics
// from the repository: recovery rate, SLA compliance, and capacity figures.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/collectworks/harrier/internal/domain"
)

// memoTTL bounds how stale a cached metrics snapshot may be.
const memoTTL = 60 * time.Second

// Service computes performance metrics for agencies.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewService creates a new metrics service. cache may be nil to disable
// memoization.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// PerformanceMetrics aggregates the trailing periodDays window for one
// agency. Returns domain.ErrNotFound when the agency does not exist and
// wraps domain.ErrUnavailable when the data source fails.
func (s *Service) PerformanceMetrics(ctx context.Context, tenantID, agencyID string, periodDays int) (*domain.PerformanceMetrics, error) {
	if tenantID == "" || agencyID == "" {
		return nil, fmt.Errorf("%w: tenantID and agencyID are required", domain.ErrValidation)
	}
	if periodDays <= 0 {
		return nil, fmt.Errorf("%w: period must be positive", domain.ErrValidation)
	}

	memoKey := fmt.Sprintf("metrics:%s:%d", agencyID, periodDays)
	if cached := s.fromMemo(ctx, tenantID, memoKey); cached != nil {
		return cached, nil
	}

	agency, err := s.repo.GetAgency(ctx, tenantID, agencyID)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -periodDays)
	cases, err := s.repo.ListCasesForAgency(ctx, tenantID, agencyID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: listing agency cases: %v", domain.ErrUnavailable, err)
	}

	var totalOutstanding, totalRecovered float64
	caseIDs := make([]string, 0, len(cases))
	for _, c := range cases {
		totalOutstanding += c.OutstandingAmount
		totalRecovered += c.RecoveredAmount
		caseIDs = append(caseIDs, c.ID)
	}

	// Computed rate backs the stored one: recovered over the full book.
	recoveryRate := agency.RecoveryRate
	if recoveryRate == 0 && totalOutstanding+totalRecovered > 0 {
		recoveryRate = totalRecovered / (totalOutstanding + totalRecovered)
	}

	slaCompliance := 1.0
	if len(caseIDs) > 0 {
		met, total, err := s.repo.CountSLAOutcomes(ctx, tenantID, caseIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: counting SLA outcomes: %v", domain.ErrUnavailable, err)
		}
		if total > 0 {
			slaCompliance = float64(met) / float64(total)
		}
	}

	m := &domain.PerformanceMetrics{
		AgencyID:         agency.ID,
		Name:             agency.Name,
		RecoveryRate:     recoveryRate,
		SLACompliance:    slaCompliance,
		PerformanceScore: agency.PerformanceScore,
		CasesHandled:     len(cases),
		TotalOutstanding: totalOutstanding,
		TotalRecovered:   totalRecovered,
		CapacityUsed:     agency.CapacityUsed,
		CapacityLimit:    agency.CapacityLimit,
	}

	s.memoize(ctx, tenantID, memoKey, m)

	return m, nil
}

func (s *Service) fromMemo(ctx context.Context, tenantID, key string) *domain.PerformanceMetrics {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, tenantID, key)
	if err != nil || data == nil {
		return nil
	}
	var m domain.PerformanceMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return &m
}

func (s *Service) memoize(ctx context.Context, tenantID, key string, m *domain.PerformanceMetrics) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, tenantID, key, data, memoTTL)
}
