package queue

import "time"

// Queue names. Each side effect class gets its own queue so operators can
// weight and drain them independently.
const (
	QueueEmail        = "email"
	QueueNotification = "notification"
	QueueAuditLog     = "audit-log"
	QueueBilling      = "billing"
)

// Task types. Every type has exactly one payload struct and one worker
// registered on the mux, so adding a job kind is a compile-time change.
const (
	TypeWelcomeEmail        = "email:welcome"
	TypeInvitationEmail     = "email:invitation"
	TypePasswordResetEmail  = "email:password-reset"
	TypeInvoiceEmail        = "email:invoice"
	TypeNotificationCreate  = "notification:create"
	TypeAuditRecord         = "audit:record"
	TypeSubscriptionProcess = "billing:process-subscription"
)

type WelcomeEmailPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

type InvitationEmailPayload struct {
	Email       string    `json:"email"`
	InviterName string    `json:"inviter_name"`
	TenantName  string    `json:"tenant_name"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type PasswordResetEmailPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type InvoiceEmailPayload struct {
	Email         string    `json:"email"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        float64   `json:"amount"`
	DueDate       time.Time `json:"due_date"`
}

type NotificationPayload struct {
	UserID   string         `json:"user_id"`
	TenantID string         `json:"tenant_id,omitempty"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Data     map[string]any `json:"data,omitempty"`
}

type AuditRecordPayload struct {
	UserID     string         `json:"user_id,omitempty"`
	TenantID   string         `json:"tenant_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
}

type SubscriptionProcessPayload struct {
	TenantID       string `json:"tenant_id"`
	SubscriptionID string `json:"subscription_id"`
	Action         string `json:"action"` // create_invoice | process_payment | subscription_renewal
}
