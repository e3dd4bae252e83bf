package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apikey"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/tenant"
)

// KeyVerifier is satisfied by the apikey service.
type KeyVerifier interface {
	Verify(ctx context.Context, secret string) (*apikey.Verification, error)
}

// TenantLoader resolves the verified key's owning tenant.
type TenantLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type APIKeyMiddleware struct {
	verifier   KeyVerifier
	tenants    TenantLoader
	headerName string
}

func NewAPIKeyMiddleware(verifier KeyVerifier, tenants TenantLoader, headerName string) *APIKeyMiddleware {
	return &APIKeyMiddleware{verifier: verifier, tenants: tenants, headerName: headerName}
}

// Authenticate attaches the owning tenant when a valid key header is present.
// Requests without the header pass through untouched so the JWT middleware
// can authenticate them instead.
func (m *APIKeyMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(m.headerName)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		v, err := m.verifier.Verify(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}

		t, err := m.tenants.GetByID(r.Context(), v.TenantID)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := tenant.WithTenant(r.Context(), t)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
