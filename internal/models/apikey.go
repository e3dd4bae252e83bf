package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey stores only the one-way hash of a secret; the full secret is
// disclosed exactly once, in the creation response.
type APIKey struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Name        string     `json:"name" db:"name"`
	KeyPrefix   string     `json:"key_prefix" db:"key_prefix"`
	KeyHash     string     `json:"-" db:"key_hash"`
	Permissions []string   `json:"permissions" db:"permissions"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
