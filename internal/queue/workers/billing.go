package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/queue"
)

// BillingDirectory resolves the tenant owner so invoices reach a real inbox.
type BillingDirectory interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
}

// InvoiceEnqueuer chains a billing job into the email queue.
type InvoiceEnqueuer interface {
	EnqueueInvoiceEmail(payload queue.InvoiceEmailPayload) error
}

var tierPrices = map[models.SubscriptionTier]float64{
	models.TierFree:       0,
	models.TierPro:        29,
	models.TierEnterprise: 99,
}

type BillingWorker struct {
	directory BillingDirectory
	enqueuer  InvoiceEnqueuer
	now       func() time.Time
}

func NewBillingWorker(directory BillingDirectory, enqueuer InvoiceEnqueuer) *BillingWorker {
	return &BillingWorker{directory: directory, enqueuer: enqueuer, now: time.Now}
}

func (w *BillingWorker) Register(r *queue.HandlersRegistry) {
	r.Register(queue.TypeSubscriptionProcess, asynq.HandlerFunc(w.HandleSubscriptionProcess))
}

func (w *BillingWorker) HandleSubscriptionProcess(ctx context.Context, t *asynq.Task) error {
	var p queue.SubscriptionProcessPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal subscription payload: %w: %w", err, asynq.SkipRetry)
	}

	tenantID, err := uuid.Parse(p.TenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant ID %q: %w: %w", p.TenantID, err, asynq.SkipRetry)
	}

	switch p.Action {
	case "create_invoice":
		return w.createInvoice(ctx, tenantID)
	case "process_payment":
		// Payment provider integration lands here; acknowledged for now so
		// the job is not retried forever.
		slog.Info("payment processing acknowledged", "tenant_id", p.TenantID, "subscription_id", p.SubscriptionID)
		return nil
	case "subscription_renewal":
		slog.Info("subscription renewal acknowledged", "tenant_id", p.TenantID, "subscription_id", p.SubscriptionID)
		return nil
	default:
		return fmt.Errorf("unknown billing action %q: %w", p.Action, asynq.SkipRetry)
	}
}

func (w *BillingWorker) createInvoice(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := w.directory.GetTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant for invoice: %w", err)
	}
	owner, err := w.directory.GetUser(ctx, tenant.OwnerID)
	if err != nil {
		return fmt.Errorf("load tenant owner for invoice: %w", err)
	}
	sub, err := w.directory.GetSubscription(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load subscription for invoice: %w", err)
	}

	now := w.now()
	payload := queue.InvoiceEmailPayload{
		Email:         owner.Email,
		InvoiceNumber: fmt.Sprintf("INV-%s-%s", now.Format("200601"), tenantID.String()[:8]),
		Amount:        tierPrices[sub.Tier],
		DueDate:       now.Add(14 * 24 * time.Hour),
	}
	if err := w.enqueuer.EnqueueInvoiceEmail(payload); err != nil {
		return fmt.Errorf("enqueue invoice email: %w", err)
	}

	slog.Info("invoice created", "tenant_id", tenantID, "invoice", payload.InvoiceNumber, "amount", payload.Amount)
	return nil
}
