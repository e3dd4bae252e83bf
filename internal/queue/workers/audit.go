package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stacklane/saasbase/internal/audit"
	"github.com/stacklane/saasbase/internal/queue"
)

// AuditRecorder is the slice of the audit service this worker needs.
type AuditRecorder interface {
	Record(ctx context.Context, req audit.RecordRequest) error
}

type AuditWorker struct {
	recorder AuditRecorder
}

func NewAuditWorker(recorder AuditRecorder) *AuditWorker {
	return &AuditWorker{recorder: recorder}
}

func (w *AuditWorker) Register(r *queue.HandlersRegistry) {
	r.Register(queue.TypeAuditRecord, asynq.HandlerFunc(w.HandleRecord))
}

func (w *AuditWorker) HandleRecord(ctx context.Context, t *asynq.Task) error {
	var p queue.AuditRecordPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal audit payload: %w: %w", err, asynq.SkipRetry)
	}

	req := audit.RecordRequest{
		Action:     p.Action,
		EntityType: p.EntityType,
		EntityID:   p.EntityID,
		OldValues:  p.OldValues,
		NewValues:  p.NewValues,
		IPAddress:  p.IPAddress,
		UserAgent:  p.UserAgent,
	}
	if p.UserID != "" {
		id, err := uuid.Parse(p.UserID)
		if err != nil {
			return fmt.Errorf("invalid user ID %q: %w: %w", p.UserID, err, asynq.SkipRetry)
		}
		req.UserID = &id
	}
	if p.TenantID != "" {
		id, err := uuid.Parse(p.TenantID)
		if err != nil {
			return fmt.Errorf("invalid tenant ID %q: %w: %w", p.TenantID, err, asynq.SkipRetry)
		}
		req.TenantID = &id
	}

	return w.recorder.Record(ctx, req)
}
