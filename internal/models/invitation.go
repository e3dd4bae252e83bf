package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationExpired   InvitationStatus = "EXPIRED"
	InvitationCancelled InvitationStatus = "CANCELLED"
)

// Terminal reports whether no further transition out of the status exists.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}

type Invitation struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	Email       string           `json:"email" db:"email"`
	TenantID    uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	Role        Role             `json:"role" db:"role"`
	Token       string           `json:"-" db:"token"`
	Status      InvitationStatus `json:"status" db:"status"`
	ExpiresAt   time.Time        `json:"expires_at" db:"expires_at"`
	InvitedByID uuid.UUID        `json:"invited_by_id" db:"invited_by_id"`
	AcceptedAt  *time.Time       `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
