// Package worker provides async assessment persistence for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collectworks/harrier/internal/domain"
)

// Worker consumes assessment events from the EventBus and persists them,
// keeping the scoring request path free of write latency.
type Worker struct {
	bus  domain.EventBus
	repo domain.Repository

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = global subscription)
	TenantIDs []string
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins consuming assessment events for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker subscribes as the global subscriber, receiving every
// tenant's assessment events without enumerating tenants up front.
func (w *Worker) startGlobalWorker() error {
	for _, topic := range []string{domain.TopicCaseAssessed, domain.TopicAgencyAnalyzed} {
		sub, err := w.bus.Subscribe(w.ctx, domain.GlobalSubscriber, topic, w.handleMessage)
		if err != nil {
			return err
		}
		w.subscriptions = append(w.subscriptions, sub)
	}

	slog.Info("global worker started")
	return nil
}

// startTenantWorker subscribes to the assessment topics for one tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	for _, topic := range []string{domain.TopicCaseAssessed, domain.TopicAgencyAnalyzed} {
		sub, err := w.bus.Subscribe(w.ctx, tenantID, topic, func(ctx context.Context, msg *domain.Message) error {
			return w.persistAssessment(ctx, tenantID, msg)
		})
		if err != nil {
			return err
		}
		w.subscriptions = append(w.subscriptions, sub)
	}

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
	)

	return nil
}

// handleMessage handles messages from the global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.persistAssessment(ctx, msg.TenantID, msg)
}

// persistAssessment stores one assessment event.
func (w *Worker) persistAssessment(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var assessment domain.Assessment
	if err := json.Unmarshal(msg.Payload, &assessment); err != nil {
		slog.Error("failed to parse assessment message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message tenant if provided
	if assessment.TenantID != "" {
		tenantID = assessment.TenantID
	}
	if assessment.ID == "" {
		assessment.ID = uuid.New().String()
	}
	if assessment.Timestamp.IsZero() {
		assessment.Timestamp = time.Now().UTC()
	}

	if err := w.repo.SaveAssessment(ctx, tenantID, &assessment); err != nil {
		slog.Error("failed to save assessment",
			"assessment_id", assessment.ID,
			"kind", assessment.Kind,
			"error", err,
		)
		return err
	}

	slog.Debug("assessment persisted",
		"assessment_id", assessment.ID,
		"tenant_id", tenantID,
		"kind", assessment.Kind,
		"case_id", assessment.CaseID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
