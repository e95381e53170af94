package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/collectworks/harrier/internal/cache"
	"github.com/collectworks/harrier/internal/domain"
	"github.com/collectworks/harrier/internal/repository"
)

func TestMetricsService(t *testing.T) {
	// Create temp database
	tmpFile, err := os.CreateTemp("", "metrics-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	lruCache := cache.NewLRUCache(100)
	defer lruCache.Close()

	svc := NewService(repo, lruCache)

	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("UnknownAgency", func(t *testing.T) {
		_, err := svc.PerformanceMetrics(ctx, tenantID, "nonexistent", 30)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	agency := &domain.AgencyRecord{
		ID:            "dca-001",
		Name:          "Apex Recovery",
		RecoveryRate:  0.72,
		CapacityLimit: 100,
		CapacityUsed:  40,
		Status:        domain.AgencyStatusActive,
	}
	if err := repo.SaveAgency(ctx, tenantID, agency); err != nil {
		t.Fatalf("SaveAgency failed: %v", err)
	}

	t.Run("NoCasesInWindow", func(t *testing.T) {
		m, err := svc.PerformanceMetrics(ctx, tenantID, "dca-001", 30)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.CasesHandled != 0 {
			t.Errorf("expected 0 cases, got %d", m.CasesHandled)
		}
		// No SLA checkpoints means full compliance.
		if m.SLACompliance != 1.0 {
			t.Errorf("expected SLA 1.0, got %.2f", m.SLACompliance)
		}
		if m.RecoveryRate != 0.72 {
			t.Errorf("stored rate should pass through, got %.2f", m.RecoveryRate)
		}
	})

	// Seed cases and SLA logs for the trailing window.
	for i, c := range []*domain.CaseRecord{
		{ID: "case-001", OutstandingAmount: 6000, RecoveredAmount: 4000, Segment: domain.SegmentMedium, AssignedAgencyID: "dca-001", Status: "OPEN"},
		{ID: "case-002", OutstandingAmount: 2000, RecoveredAmount: 0, Segment: domain.SegmentSmall, AssignedAgencyID: "dca-001", Status: "OPEN"},
	} {
		c.CreatedAt = time.Now().UTC().AddDate(0, 0, -i-1)
		if err := repo.SaveCase(ctx, tenantID, c); err != nil {
			t.Fatalf("SaveCase failed: %v", err)
		}
	}
	for i, status := range []string{domain.SLAMet, domain.SLAMet, domain.SLAMet, domain.SLAMissed} {
		log := &domain.SLALog{
			ID:        fmt.Sprintf("sla-%d", i),
			CaseID:    "case-001",
			Status:    status,
			CheckedAt: time.Now().UTC(),
		}
		if err := repo.SaveSLALog(ctx, tenantID, log); err != nil {
			t.Fatalf("SaveSLALog failed: %v", err)
		}
	}

	t.Run("AggregatesWindow", func(t *testing.T) {
		// Period differs from the earlier empty-window call so the memoized
		// zero-case snapshot is not reused.
		m, err := svc.PerformanceMetrics(ctx, tenantID, "dca-001", 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.CasesHandled != 2 {
			t.Errorf("expected 2 cases, got %d", m.CasesHandled)
		}
		if m.TotalOutstanding != 8000 {
			t.Errorf("total outstanding = %.2f, want 8000", m.TotalOutstanding)
		}
		if m.TotalRecovered != 4000 {
			t.Errorf("total recovered = %.2f, want 4000", m.TotalRecovered)
		}
		if m.SLACompliance != 0.75 {
			t.Errorf("SLA compliance = %.2f, want 0.75", m.SLACompliance)
		}
		if m.CapacityUsed != 40 || m.CapacityLimit != 100 {
			t.Errorf("capacity figures = %d/%d", m.CapacityUsed, m.CapacityLimit)
		}
	})

	t.Run("ShortWindowExcludesOldCases", func(t *testing.T) {
		old := &domain.CaseRecord{
			ID:                "case-old",
			OutstandingAmount: 99999,
			AssignedAgencyID:  "dca-001",
			Segment:           domain.SegmentLarge,
			Status:            "OPEN",
			CreatedAt:         time.Now().UTC().AddDate(0, 0, -90),
		}
		if err := repo.SaveCase(ctx, tenantID, old); err != nil {
			t.Fatalf("SaveCase failed: %v", err)
		}

		// Bypass the memoized 30-day snapshot with a different period.
		m, err := svc.PerformanceMetrics(ctx, tenantID, "dca-001", 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.CasesHandled != 2 {
			t.Errorf("7-day window should exclude the 90-day-old case, got %d cases", m.CasesHandled)
		}
	})

	t.Run("ComputedRateBacksStoredZero", func(t *testing.T) {
		unrated := &domain.AgencyRecord{
			ID:            "dca-002",
			Name:          "Fresh Partners",
			CapacityLimit: 50,
			Status:        domain.AgencyStatusActive,
		}
		if err := repo.SaveAgency(ctx, tenantID, unrated); err != nil {
			t.Fatalf("SaveAgency failed: %v", err)
		}
		c := &domain.CaseRecord{
			ID:                "case-010",
			OutstandingAmount: 3000,
			RecoveredAmount:   1000,
			AssignedAgencyID:  "dca-002",
			Segment:           domain.SegmentMedium,
			Status:            "OPEN",
			CreatedAt:         time.Now().UTC().AddDate(0, 0, -2),
		}
		if err := repo.SaveCase(ctx, tenantID, c); err != nil {
			t.Fatalf("SaveCase failed: %v", err)
		}

		m, err := svc.PerformanceMetrics(ctx, tenantID, "dca-002", 30)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 1000 recovered over a 4000 book.
		if math.Abs(m.RecoveryRate-0.25) > 1e-9 {
			t.Errorf("computed rate = %.4f, want 0.25", m.RecoveryRate)
		}
	})

	t.Run("MemoizesSnapshots", func(t *testing.T) {
		first, err := svc.PerformanceMetrics(ctx, tenantID, "dca-001", 14)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Change the stored record; the memoized snapshot should win within TTL.
		agency.CapacityUsed = 90
		if err := repo.SaveAgency(ctx, tenantID, agency); err != nil {
			t.Fatalf("SaveAgency failed: %v", err)
		}

		second, err := svc.PerformanceMetrics(ctx, tenantID, "dca-001", 14)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.CapacityUsed != first.CapacityUsed {
			t.Errorf("expected memoized capacity %d, got %d", first.CapacityUsed, second.CapacityUsed)
		}
	})

	t.Run("ValidatesInput", func(t *testing.T) {
		_, err := svc.PerformanceMetrics(ctx, "", "dca-001", 30)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error for empty tenant, got %v", err)
		}
		_, err = svc.PerformanceMetrics(ctx, tenantID, "dca-001", 0)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error for zero period, got %v", err)
		}
	})
}
