// Package apikey issues and verifies tenant API keys. Only a one-way hash of
// the secret is persisted; the plaintext is disclosed exactly once.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

const (
	secretPrefix  = "sk_live_"
	secretBytes   = 24 // 192 bits of random material after the prefix
	displayChars  = 12
	OneTimeNotice = "Save this API key now. You will not be able to see it again!"
)

type Store interface {
	Create(ctx context.Context, k *models.APIKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	GetByHash(ctx context.Context, hash string) (*models.APIKey, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.APIKey, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type TenantDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type Service struct {
	store   Store
	tenants TenantDirectory
	now     func() time.Time
}

func NewService(store Store, tenants TenantDirectory) *Service {
	return &Service{store: store, tenants: tenants, now: time.Now}
}

type CreateRequest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	Name          string    `json:"name"`
	Permissions   []string  `json:"permissions,omitempty"`
	ExpiresInDays int       `json:"expires_in_days,omitempty"`
}

type Created struct {
	APIKey  models.APIKey `json:"api_key"`
	Secret  string        `json:"key"`
	Warning string        `json:"warning"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Created, error) {
	if req.Name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	if _, err := s.tenants.GetByID(ctx, req.TenantID); err != nil {
		return nil, err
	}

	secret := generateSecret()

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := s.now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour)
		expiresAt = &t
	}

	perms := req.Permissions
	if perms == nil {
		perms = []string{}
	}

	k := &models.APIKey{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		Name:        req.Name,
		KeyPrefix:   secret[:displayChars] + "...",
		KeyHash:     HashSecret(secret),
		Permissions: perms,
		IsActive:    true,
		ExpiresAt:   expiresAt,
		CreatedAt:   s.now(),
	}
	if err := s.store.Create(ctx, k); err != nil {
		return nil, err
	}

	return &Created{APIKey: *k, Secret: secret, Warning: OneTimeNotice}, nil
}

type Verification struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	TenantName  string    `json:"tenant_name"`
	Permissions []string  `json:"permissions"`
}

// Verify looks the key up by the recomputed hash, never by the visible
// prefix, so the prefix gives no enumeration shortcut.
func (s *Service) Verify(ctx context.Context, secret string) (*Verification, error) {
	k, err := s.store.GetByHash(ctx, HashSecret(secret))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("invalid API key")
		}
		return nil, err
	}

	if !k.IsActive {
		return nil, apperr.Unauthorized("API key has been revoked")
	}
	if k.ExpiresAt != nil && s.now().After(*k.ExpiresAt) {
		return nil, apperr.Unauthorized("API key has expired")
	}

	// Best-effort: a failed lastUsedAt write must not fail the verification.
	if err := s.store.TouchLastUsed(ctx, k.ID, s.now()); err != nil {
		slog.Warn("failed to record API key use", "error", err, "key_id", k.ID)
	}

	t, err := s.tenants.GetByID(ctx, k.TenantID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("invalid API key")
		}
		return nil, err
	}

	return &Verification{TenantID: t.ID, TenantName: t.Name, Permissions: k.Permissions}, nil
}

func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}
	return s.store.SetActive(ctx, id, false)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.APIKey, error) {
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListByTenant(ctx, tenantID)
}

func generateSecret() string {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		panic("apikey: crypto/rand unavailable: " + err.Error())
	}
	return secretPrefix + hex.EncodeToString(b)
}

func HashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}
