// Package workers holds the asynq task handlers. Each task type gets exactly
// one handler so dispatch stays a compile-time concern.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stacklane/saasbase/internal/queue"
)

// Sender is the slice of the mailer the email worker needs.
type Sender interface {
	SendWelcome(to, firstName, lastName string) error
	SendInvitation(to, inviterName, tenantName, token string, expiresAt time.Time) error
	SendPasswordReset(to, token string) error
	SendInvoice(to, invoiceNumber string, amount float64, dueDate time.Time) error
}

type EmailWorker struct {
	mailer Sender
}

func NewEmailWorker(mailer Sender) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Register(r *queue.HandlersRegistry) {
	r.Register(queue.TypeWelcomeEmail, asynq.HandlerFunc(w.HandleWelcome))
	r.Register(queue.TypeInvitationEmail, asynq.HandlerFunc(w.HandleInvitation))
	r.Register(queue.TypePasswordResetEmail, asynq.HandlerFunc(w.HandlePasswordReset))
	r.Register(queue.TypeInvoiceEmail, asynq.HandlerFunc(w.HandleInvoice))
}

func (w *EmailWorker) HandleWelcome(ctx context.Context, t *asynq.Task) error {
	var p queue.WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal welcome email payload: %w: %w", err, asynq.SkipRetry)
	}
	if err := w.mailer.SendWelcome(p.Email, p.FirstName, p.LastName); err != nil {
		return err
	}
	slog.Info("welcome email sent", "email", p.Email)
	return nil
}

func (w *EmailWorker) HandleInvitation(ctx context.Context, t *asynq.Task) error {
	var p queue.InvitationEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal invitation email payload: %w: %w", err, asynq.SkipRetry)
	}
	if err := w.mailer.SendInvitation(p.Email, p.InviterName, p.TenantName, p.Token, p.ExpiresAt); err != nil {
		return err
	}
	slog.Info("invitation email sent", "email", p.Email, "tenant", p.TenantName)
	return nil
}

func (w *EmailWorker) HandlePasswordReset(ctx context.Context, t *asynq.Task) error {
	var p queue.PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal password reset payload: %w: %w", err, asynq.SkipRetry)
	}
	if err := w.mailer.SendPasswordReset(p.Email, p.Token); err != nil {
		return err
	}
	slog.Info("password reset email sent", "email", p.Email)
	return nil
}

func (w *EmailWorker) HandleInvoice(ctx context.Context, t *asynq.Task) error {
	var p queue.InvoiceEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal invoice email payload: %w: %w", err, asynq.SkipRetry)
	}
	if err := w.mailer.SendInvoice(p.Email, p.InvoiceNumber, p.Amount, p.DueDate); err != nil {
		return err
	}
	slog.Info("invoice email sent", "email", p.Email, "invoice", p.InvoiceNumber)
	return nil
}
