package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is append-only: rows are inserted by the audit queue worker and
// never mutated or deleted.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty" db:"tenant_id"`
	UserID     *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty" db:"entity_id"`
	OldValues  json.RawMessage `json:"old_values,omitempty" db:"old_values"`
	NewValues  json.RawMessage `json:"new_values,omitempty" db:"new_values"`
	IPAddress  string          `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string          `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
