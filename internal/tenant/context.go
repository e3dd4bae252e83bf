package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/models"
)

type contextKey string

const (
	tenantIDKey    contextKey = "tenantID"
	userKey        contextKey = "user"
	tenantKey      contextKey = "tenant"
	rolesKey       contextKey = "roles"
	membershipsKey contextKey = "memberships"
)

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func WithTenant(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

func FromContext(ctx context.Context) *models.Tenant {
	t, _ := ctx.Value(tenantKey).(*models.Tenant)
	return t
}

// WithScopedTenantID carries the explicit tenant id from the tenant-scoping
// request header, when present.
func WithScopedTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

func ScopedTenantIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(tenantIDKey).(uuid.UUID)
	return id
}

// WithRoles attaches the caller's resolved role set and membership records
// for the duration of one request, so downstream code avoids a second fetch.
func WithRoles(ctx context.Context, roles []models.Role, memberships []models.Membership) context.Context {
	ctx = context.WithValue(ctx, rolesKey, roles)
	return context.WithValue(ctx, membershipsKey, memberships)
}

func RolesFromContext(ctx context.Context) []models.Role {
	r, _ := ctx.Value(rolesKey).([]models.Role)
	return r
}

func MembershipsFromContext(ctx context.Context) []models.Membership {
	m, _ := ctx.Value(membershipsKey).([]models.Membership)
	return m
}
