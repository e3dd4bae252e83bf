package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stacklane/saasbase/internal/config"
)

// Retry policy shared by all queues: 3 attempts with exponential backoff
// (the worker's RetryDelayFunc starts at 2s), then the task is archived and
// reported, never silently dropped.
const (
	defaultMaxRetry  = 3
	defaultRetention = 24 * time.Hour
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueWelcomeEmail(payload WelcomeEmailPayload) error {
	return c.enqueue(TypeWelcomeEmail, QueueEmail, payload)
}

func (c *Client) EnqueueInvitationEmail(payload InvitationEmailPayload) error {
	return c.enqueue(TypeInvitationEmail, QueueEmail, payload)
}

func (c *Client) EnqueuePasswordResetEmail(payload PasswordResetEmailPayload) error {
	return c.enqueue(TypePasswordResetEmail, QueueEmail, payload)
}

func (c *Client) EnqueueInvoiceEmail(payload InvoiceEmailPayload) error {
	return c.enqueue(TypeInvoiceEmail, QueueEmail, payload)
}

func (c *Client) EnqueueNotification(payload NotificationPayload) error {
	return c.enqueue(TypeNotificationCreate, QueueNotification, payload)
}

func (c *Client) EnqueueAuditRecord(payload AuditRecordPayload) error {
	return c.enqueue(TypeAuditRecord, QueueAuditLog, payload)
}

func (c *Client) EnqueueSubscriptionProcess(payload SubscriptionProcessPayload) error {
	return c.enqueue(TypeSubscriptionProcess, QueueBilling, payload)
}

func (c *Client) enqueue(taskType, queueName string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task,
		asynq.Queue(queueName),
		asynq.MaxRetry(defaultMaxRetry),
		asynq.Retention(defaultRetention),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
