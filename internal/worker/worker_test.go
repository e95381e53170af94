package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/collectworks/harrier/internal/bus"
	"github.com/collectworks/harrier/internal/domain"
	"github.com/collectworks/harrier/internal/repository"
)

func setupWorkerTest(t *testing.T) (domain.Repository, *bus.ChannelBus, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "worker-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		os.Remove(tmpPath)
		t.Fatalf("failed to create repository: %v", err)
	}

	eventBus := bus.NewChannelBus(100)

	cleanup := func() {
		eventBus.Close()
		repo.Close()
		os.Remove(tmpPath)
	}
	return repo, eventBus, cleanup
}

// waitForAssessment polls until the assessment shows up or the deadline passes.
func waitForAssessment(t *testing.T, repo domain.Repository, tenantID, id string) *domain.Assessment {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a, err := repo.GetAssessment(context.Background(), tenantID, id)
		if err == nil {
			return a
		}
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetAssessment failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("assessment %s never persisted", id)
	return nil
}

func TestWorkerPersistsAssessments(t *testing.T) {
	repo, eventBus, cleanup := setupWorkerTest(t)
	defer cleanup()

	w := NewWorker(eventBus, repo)
	if err := w.Start(Config{TenantIDs: []string{"tenant-001"}}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	ctx := context.Background()

	t.Run("CaseAssessed", func(t *testing.T) {
		assessment := domain.Assessment{
			ID:       "assess-001",
			TenantID: "tenant-001",
			Kind:     domain.AssessmentPriority,
			CaseID:   "case-001",
			Score:    79,
			Payload:  []byte(`{"priorityScore":79,"riskLevel":"HIGH"}`),
		}
		payload, _ := json.Marshal(assessment)

		if err := eventBus.Publish(ctx, "tenant-001", domain.TopicCaseAssessed, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		stored := waitForAssessment(t, repo, "tenant-001", "assess-001")
		if stored.Kind != domain.AssessmentPriority {
			t.Errorf("expected kind %q, got %q", domain.AssessmentPriority, stored.Kind)
		}
		if stored.Score != 79 {
			t.Errorf("expected score 79, got %.1f", stored.Score)
		}
		if stored.CaseID != "case-001" {
			t.Errorf("expected case-001, got %s", stored.CaseID)
		}
		if stored.Timestamp.IsZero() {
			t.Error("expected timestamp to be filled in")
		}
	})

	t.Run("AgencyAnalyzed", func(t *testing.T) {
		assessment := domain.Assessment{
			ID:       "assess-002",
			TenantID: "tenant-001",
			Kind:     domain.AssessmentAnalysis,
			AgencyID: "dca-001",
			Score:    74,
			Payload:  []byte(`{"overallScore":74,"grade":"B"}`),
		}
		payload, _ := json.Marshal(assessment)

		if err := eventBus.Publish(ctx, "tenant-001", domain.TopicAgencyAnalyzed, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		stored := waitForAssessment(t, repo, "tenant-001", "assess-002")
		if stored.AgencyID != "dca-001" {
			t.Errorf("expected dca-001, got %s", stored.AgencyID)
		}
	})

	t.Run("IgnoresMalformedPayload", func(t *testing.T) {
		if err := eventBus.Publish(ctx, "tenant-001", domain.TopicCaseAssessed, []byte("not json")); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		// A bad message must not break later ones.
		assessment := domain.Assessment{
			ID:       "assess-003",
			TenantID: "tenant-001",
			Kind:     domain.AssessmentRecovery,
			CaseID:   "case-002",
			Score:    92.7,
			Payload:  []byte(`{"recoveryProbability":0.927}`),
		}
		payload, _ := json.Marshal(assessment)
		if err := eventBus.Publish(ctx, "tenant-001", domain.TopicCaseAssessed, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		waitForAssessment(t, repo, "tenant-001", "assess-003")
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		// Worker is only subscribed for tenant-001.
		assessment := domain.Assessment{
			ID:       "assess-other",
			TenantID: "tenant-002",
			Kind:     domain.AssessmentPriority,
			CaseID:   "case-x",
			Score:    10,
			Payload:  []byte(`{}`),
		}
		payload, _ := json.Marshal(assessment)
		if err := eventBus.Publish(ctx, "tenant-002", domain.TopicCaseAssessed, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		time.Sleep(100 * time.Millisecond)
		_, err := repo.GetAssessment(ctx, "tenant-002", "assess-other")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unsubscribed tenant, got %v", err)
		}
	})

	t.Run("GetStats", func(t *testing.T) {
		stats := w.GetStats()
		if stats.SubscriptionCount != 2 {
			t.Errorf("expected 2 subscriptions, got %d", stats.SubscriptionCount)
		}
	})
}

func TestGlobalWorker(t *testing.T) {
	repo, eventBus, cleanup := setupWorkerTest(t)
	defer cleanup()

	w := NewWorker(eventBus, repo)
	if err := w.Start(Config{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	assessment := domain.Assessment{
		ID:       "assess-global",
		TenantID: "tenant-009",
		Kind:     domain.AssessmentROE,
		CaseID:   "case-001",
		Score:    85,
		Payload:  []byte(`{"roeScore":85}`),
	}
	payload, _ := json.Marshal(assessment)

	// The global subscription receives tenant-scoped publishes; the embedded
	// tenant ID controls where the row lands.
	if err := eventBus.Publish(context.Background(), "tenant-009", domain.TopicCaseAssessed, payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	stored := waitForAssessment(t, repo, "tenant-009", "assess-global")
	if stored.Kind != domain.AssessmentROE {
		t.Errorf("expected kind %q, got %q", domain.AssessmentROE, stored.Kind)
	}
}

func TestWorkerStop(t *testing.T) {
	repo, eventBus, cleanup := setupWorkerTest(t)
	defer cleanup()

	w := NewWorker(eventBus, repo)
	if err := w.Start(Config{TenantIDs: []string{"tenant-001"}}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if stats := w.GetStats(); stats.SubscriptionCount != 0 {
		t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
	}
}
