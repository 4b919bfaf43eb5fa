package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	pkgmetrics "DeskPortal/pkg/metrics"
)

// AuditHandler consumes desk events from Kafka and writes them to the audit store.
type AuditHandler struct {
	topic   string
	store   domrepo.AuditStore
	metrics domrepo.Metrics
}

func NewAuditHandler(topic string, store domrepo.AuditStore, metrics domrepo.Metrics) *AuditHandler {
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	return &AuditHandler{topic: topic, store: store, metrics: metrics}
}

func (h *AuditHandler) Topic() string { return h.topic }

// Handle decodes one DeskEvent. Events are stored by id, so a redelivered
// message replaces the earlier row.
func (h *AuditHandler) Handle(ctx context.Context, b []byte) error {
	var e models.DeskEvent
	if err := json.Unmarshal(b, &e); err != nil {
		h.metrics.RecordError("audit_unmarshal")
		return fmt.Errorf("decode desk event: %w", err)
	}
	if e.ID == "" || e.Type == "" {
		h.metrics.RecordError("audit_invalid")
		return fmt.Errorf("desk event without id or type")
	}
	if !e.OccurredAt.IsZero() {
		h.metrics.RecordLatency("audit_e2e_seconds", time.Since(e.OccurredAt).Seconds())
	}

	start := time.Now()
	err := h.store.Store(ctx, e)
	h.metrics.RecordLatency("audit_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("audit_store")
		return err
	}
	h.metrics.RecordEvent(string(e.Type), "stored")
	return nil
}
