package models

import (
	"time"

	"github.com/google/uuid"
)

type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
)

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type Tenant struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Slug        string       `json:"slug" db:"slug"`
	Description string       `json:"description,omitempty" db:"description"`
	OwnerID     uuid.UUID    `json:"owner_id" db:"owner_id"`
	Status      TenantStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time   `json:"-" db:"deleted_at"`
}

// Membership joins a user to a tenant at a role. A user holds at most one
// membership per tenant, enforced by a unique (tenant_id, user_id) index.
type Membership struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}

type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "FREE"
	TierPro        SubscriptionTier = "PRO"
	TierEnterprise SubscriptionTier = "ENTERPRISE"
)

type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "TRIAL"
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

type Subscription struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	TenantID      uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	Tier          SubscriptionTier   `json:"tier" db:"tier"`
	Status        SubscriptionStatus `json:"status" db:"status"`
	TrialStartsAt *time.Time         `json:"trial_starts_at,omitempty" db:"trial_starts_at"`
	TrialEndsAt   *time.Time         `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	MaxUsers      int                `json:"max_users" db:"max_users"`
	MaxProjects   int                `json:"max_projects" db:"max_projects"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}
