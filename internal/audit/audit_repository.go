package audit

import (
	"context"
	"log/slog"

	"github.com/bingospaces/gatekeeper/model"
	"gorm.io/gorm"
)

type AuditEventRepository interface {
	RecordEvent(ctx context.Context, event *model.AuditEvent) error
}

type auditEventRepository struct {
	db *gorm.DB
}

// RecordEvent is best effort: audit must never take a request down with it.
func (r *auditEventRepository) RecordEvent(ctx context.Context, event *model.AuditEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		slog.Warn("Failed to record audit event", "eventType", event.EventType, "error", err)
		return err
	}
	return nil
}

func NewAuditEventRepository(db *gorm.DB) AuditEventRepository {
	return &auditEventRepository{
		db: db,
	}
}
