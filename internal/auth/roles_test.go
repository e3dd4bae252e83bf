package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/tenant"
)

type fakeMemberships struct {
	byUser map[uuid.UUID][]models.Membership
}

func (f *fakeMemberships) ListMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	return f.byUser[userID], nil
}

func requestAs(u *models.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if u != nil {
		r = r.WithContext(tenant.WithUser(r.Context(), u))
	}
	return r
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	engine := NewEngine(&fakeMemberships{byUser: map[uuid.UUID][]models.Membership{
		u.ID: {{TenantID: uuid.New(), UserID: u.ID, Role: models.RoleAdmin}},
	}})

	var called bool
	rec := httptest.NewRecorder()
	engine.RequireRoles(models.RoleOwner, models.RoleAdmin)(okHandler(&called)).ServeHTTP(rec, requestAs(u))

	if !called {
		t.Fatalf("handler not called, status = %d", rec.Code)
	}
}

func TestRequireRolesDeniesMissingRole(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	engine := NewEngine(&fakeMemberships{byUser: map[uuid.UUID][]models.Membership{
		u.ID: {{TenantID: uuid.New(), UserID: u.ID, Role: models.RoleMember}},
	}})

	var called bool
	rec := httptest.NewRecorder()
	engine.RequireRoles(models.RoleOwner)(okHandler(&called)).ServeHTTP(rec, requestAs(u))

	if called {
		t.Fatal("handler called despite missing role")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRolesDeniesUnauthenticated(t *testing.T) {
	engine := NewEngine(&fakeMemberships{byUser: map[uuid.UUID][]models.Membership{}})

	var called bool
	rec := httptest.NewRecorder()
	engine.RequireRoles(models.RoleMember)(okHandler(&called)).ServeHTTP(rec, requestAs(nil))

	if called {
		t.Fatal("handler called without a user")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRolesDeniesUserWithoutMemberships(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	engine := NewEngine(&fakeMemberships{byUser: map[uuid.UUID][]models.Membership{}})

	var called bool
	rec := httptest.NewRecorder()
	engine.RequireRoles(models.RoleMember)(okHandler(&called)).ServeHTTP(rec, requestAs(u))

	if called {
		t.Fatal("handler called without memberships")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRolesEmptyRequirementAllowsAnyone(t *testing.T) {
	engine := NewEngine(&fakeMemberships{byUser: map[uuid.UUID][]models.Membership{}})

	var called bool
	rec := httptest.NewRecorder()
	engine.RequireRoles()(okHandler(&called)).ServeHTTP(rec, requestAs(nil))

	if !called {
		t.Fatalf("handler not called, status = %d", rec.Code)
	}
}

// A role held in ANY tenant satisfies the requirement, even when the request
// targets a different tenant. Handlers that need per-tenant enforcement check
// the membership themselves.
func TestRequireRolesIsTenantAgnostic(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	tenantA := uuid.New()
	engine := NewEngine(&fakeMemberships{byUser: map[uuid.UUID][]models.Membership{
		u.ID: {{TenantID: tenantA, UserID: u.ID, Role: models.RoleOwner}},
	}})

	var called bool
	r := requestAs(u)
	// The request path names a tenant the user does not belong to.
	r.URL.Path = "/api/v1/tenants/" + uuid.New().String()

	rec := httptest.NewRecorder()
	engine.RequireRoles(models.RoleOwner)(okHandler(&called)).ServeHTTP(rec, r)

	if !called {
		t.Fatalf("handler not called, status = %d", rec.Code)
	}
}

func TestRequireRolesAttachesRolesToContext(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	m := models.Membership{TenantID: uuid.New(), UserID: u.ID, Role: models.RoleAdmin}
	engine := NewEngine(&fakeMemberships{byUser: map[uuid.UUID][]models.Membership{u.ID: {m}}})

	var gotRoles []models.Role
	var gotMemberships []models.Membership
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRoles = tenant.RolesFromContext(r.Context())
		gotMemberships = tenant.MembershipsFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	engine.RequireRoles(models.RoleAdmin)(inner).ServeHTTP(rec, requestAs(u))

	if len(gotRoles) != 1 || gotRoles[0] != models.RoleAdmin {
		t.Errorf("roles in context = %v, want [ADMIN]", gotRoles)
	}
	if len(gotMemberships) != 1 || gotMemberships[0].TenantID != m.TenantID {
		t.Errorf("memberships in context = %v", gotMemberships)
	}
}
