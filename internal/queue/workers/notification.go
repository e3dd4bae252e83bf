package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/notification"
	"github.com/stacklane/saasbase/internal/queue"
)

// NotificationCreator is the slice of the notification service this worker
// needs.
type NotificationCreator interface {
	Create(ctx context.Context, req notification.CreateRequest) (*models.Notification, error)
}

type NotificationWorker struct {
	notifications NotificationCreator
}

func NewNotificationWorker(notifications NotificationCreator) *NotificationWorker {
	return &NotificationWorker{notifications: notifications}
}

func (w *NotificationWorker) Register(r *queue.HandlersRegistry) {
	r.Register(queue.TypeNotificationCreate, asynq.HandlerFunc(w.HandleCreate))
}

func (w *NotificationWorker) HandleCreate(ctx context.Context, t *asynq.Task) error {
	var p queue.NotificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal notification payload: %w: %w", err, asynq.SkipRetry)
	}

	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w: %w", p.UserID, err, asynq.SkipRetry)
	}

	req := notification.CreateRequest{
		UserID:  userID,
		Type:    models.NotificationType(p.Type),
		Title:   p.Title,
		Content: p.Content,
		Data:    p.Data,
	}
	if p.TenantID != "" {
		tid, err := uuid.Parse(p.TenantID)
		if err != nil {
			return fmt.Errorf("invalid tenant ID %q: %w: %w", p.TenantID, err, asynq.SkipRetry)
		}
		req.TenantID = &tid
	}

	_, err = w.notifications.Create(ctx, req)
	return err
}
