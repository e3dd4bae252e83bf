package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/tenant"
)

// MembershipSource lists a user's memberships across all tenants.
type MembershipSource interface {
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
}

// Engine decides whether a caller's role set satisfies a route's required
// roles. The check is deliberately tenant-agnostic: it asks whether the
// caller holds a required role in ANY tenant, not in the tenant named by the
// request path. See TestRequireRolesIsTenantAgnostic.
type Engine struct {
	members MembershipSource
}

func NewEngine(members MembershipSource) *Engine {
	return &Engine{members: members}
}

// RequireRoles allows the request through when the caller's global role set
// intersects required. An empty required set allows any authenticated caller.
// On success the resolved roles and membership records are attached to the
// request context so downstream handlers avoid a second fetch.
func (e *Engine) RequireRoles(required ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user := tenant.UserFromContext(r.Context())
			if user == nil {
				writeError(w, apperr.Forbidden("user not authenticated"))
				return
			}

			memberships, err := e.members.ListMemberships(r.Context(), user.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			if len(memberships) == 0 {
				writeError(w, apperr.Forbidden("user is not a member of any tenant"))
				return
			}

			roles := make([]models.Role, 0, len(memberships))
			for _, m := range memberships {
				roles = append(roles, m.Role)
			}

			if !intersects(roles, required) {
				writeError(w, apperr.Newf(apperr.KindForbidden,
					"access denied: required roles: %s; your roles: %s",
					joinRoles(required), joinRoles(roles)))
				return
			}

			ctx := tenant.WithRoles(r.Context(), roles, memberships)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func intersects(have, want []models.Role) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func joinRoles(roles []models.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
