package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/bingospaces/gatekeeper/model"
)

var auditRepo AuditEventRepository
var initOnce sync.Once

func Initialize(repo AuditEventRepository) {
	initOnce.Do(func() {
		auditRepo = repo
	})
}

const (
	EventTypeGateAllowed      = "gate_allowed"
	EventTypeGateDenied       = "gate_denied"
	EventTypeSweepCompleted   = "sweep_completed"
	EventTypeWebhookRejected  = "webhook_rejected"
	EventTypeCredentialLinked = "credential_linked"
)

type GateDecisionRecord struct {
	UserID     string
	SpaceID    string
	Allowed    bool
	ReasonCode string
	Details    string
	IP         string
}

type SweepRecord struct {
	Total     int
	Refreshed int
	Skipped   int
	Failed    int
}

type WebhookRejectedRecord struct {
	ReasonCode string
	Reason     string
	IP         string
}

type CredentialLinkedRecord struct {
	UserID   string
	Provider string
	IP       string
}

// record is the single write path; audit is best effort and a missing
// repository means events are dropped, not errors raised.
func writeEvent(ctx context.Context, event *model.AuditEvent) error {
	if auditRepo == nil {
		return nil
	}
	return auditRepo.RecordEvent(ctx, event)
}

func RecordGateDecision(ctx context.Context, record GateDecisionRecord) error {
	eventType := EventTypeGateDenied
	if record.Allowed {
		eventType = EventTypeGateAllowed
	}
	return writeEvent(ctx, &model.AuditEvent{
		UserID:     record.UserID,
		SpaceID:    record.SpaceID,
		EventType:  eventType,
		ReasonCode: record.ReasonCode,
		Reason:     record.Details,
		IP:         record.IP,
	})
}

func RecordSweep(ctx context.Context, record SweepRecord) error {
	return writeEvent(ctx, &model.AuditEvent{
		EventType: EventTypeSweepCompleted,
		Reason: fmt.Sprintf("total=%d refreshed=%d skipped=%d failed=%d",
			record.Total, record.Refreshed, record.Skipped, record.Failed),
	})
}

func RecordWebhookRejected(ctx context.Context, record WebhookRejectedRecord) error {
	return writeEvent(ctx, &model.AuditEvent{
		EventType:  EventTypeWebhookRejected,
		ReasonCode: record.ReasonCode,
		Reason:     record.Reason,
		IP:         record.IP,
	})
}

func RecordCredentialLinked(ctx context.Context, record CredentialLinkedRecord) error {
	return writeEvent(ctx, &model.AuditEvent{
		UserID:    record.UserID,
		EventType: EventTypeCredentialLinked,
		Provider:  record.Provider,
		IP:        record.IP,
	})
}
