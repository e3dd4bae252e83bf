package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/tenant"
)

// TenantHeader optionally scopes a request to one tenant. The role engine
// does not enforce it; handlers that want the explicit scope read it from
// the context.
const TenantHeader = "X-Tenant-ID"

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserLoader resolves the bearer token's subject to a live account.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type JWTMiddleware struct {
	secret []byte
	users  UserLoader
}

func NewJWTMiddleware(secret string, users UserLoader) *JWTMiddleware {
	return &JWTMiddleware{secret: []byte(secret), users: users}
}

func (m *JWTMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An upstream middleware (API key) may have authenticated already.
		if tenant.UserFromContext(r.Context()) != nil || tenant.FromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeError(w, apperr.Unauthorized("missing authorization token"))
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, apperr.Unauthorized("invalid token"))
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			writeError(w, apperr.Unauthorized("invalid user ID in token"))
			return
		}

		ctx := r.Context()
		user, err := m.users.GetByID(ctx, userID)
		if err != nil {
			writeError(w, apperr.Unauthorized("user not found"))
			return
		}
		if user.Status != models.UserActive {
			writeError(w, apperr.Unauthorized("account is not active"))
			return
		}

		ctx = tenant.WithUser(ctx, user)

		if raw := r.Header.Get(TenantHeader); raw != "" {
			if tid, err := uuid.Parse(raw); err == nil {
				ctx = tenant.WithScopedTenantID(ctx, tid)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.Status(err))
	json.NewEncoder(w).Encode(map[string]string{
		"error":   apperr.KindOf(err).String(),
		"message": apperr.Message(err),
	})
}
