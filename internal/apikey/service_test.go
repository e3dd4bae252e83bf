package apikey

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

type fakeStore struct {
	keys      map[uuid.UUID]*models.APIKey
	touchErr  error
	lastTouch *time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[uuid.UUID]*models.APIKey{}}
}

func (s *fakeStore) Create(ctx context.Context, k *models.APIKey) error {
	cp := *k
	s.keys[k.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	k, ok := s.keys[id]
	if !ok {
		return nil, apperr.NotFound("API key not found")
	}
	cp := *k
	return &cp, nil
}

func (s *fakeStore) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	for _, k := range s.keys {
		if k.KeyHash == hash {
			cp := *k
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("API key not found")
}

func (s *fakeStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.APIKey, error) {
	var out []models.APIKey
	for _, k := range s.keys {
		if k.TenantID == tenantID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (s *fakeStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	k, ok := s.keys[id]
	if !ok {
		return apperr.NotFound("API key not found")
	}
	k.IsActive = active
	return nil
}

func (s *fakeStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.touchErr != nil {
		return s.touchErr
	}
	s.lastTouch = &at
	if k, ok := s.keys[id]; ok {
		k.LastUsedAt = &at
	}
	return nil
}

type fakeTenants struct {
	tenants map[uuid.UUID]*models.Tenant
}

func (d *fakeTenants) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, ok := d.tenants[id]
	if !ok {
		return nil, apperr.NotFound("tenant not found")
	}
	return t, nil
}

func newTestService() (*Service, *fakeStore, *models.Tenant) {
	store := newFakeStore()
	ten := &models.Tenant{ID: uuid.New(), Name: "Acme", Slug: "acme"}
	svc := NewService(store, &fakeTenants{tenants: map[uuid.UUID]*models.Tenant{ten.ID: ten}})
	return svc, store, ten
}

func TestCreateDisclosesSecretOnce(t *testing.T) {
	svc, store, ten := newTestService()

	created, err := svc.Create(context.Background(), CreateRequest{TenantID: ten.ID, Name: "ci"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(created.Secret, "sk_live_") {
		t.Errorf("secret = %q, want sk_live_ prefix", created.Secret)
	}
	if created.Warning != OneTimeNotice {
		t.Errorf("warning = %q", created.Warning)
	}

	stored := store.keys[created.APIKey.ID]
	if stored.KeyHash == created.Secret {
		t.Error("plaintext secret was persisted")
	}
	if stored.KeyHash != HashSecret(created.Secret) {
		t.Error("stored hash does not match the secret digest")
	}
	if want := created.Secret[:12] + "..."; stored.KeyPrefix != want {
		t.Errorf("prefix = %q, want %q", stored.KeyPrefix, want)
	}
}

func TestCreateDefaultsPermissionsToEmpty(t *testing.T) {
	svc, store, ten := newTestService()

	created, err := svc.Create(context.Background(), CreateRequest{TenantID: ten.ID, Name: "ci"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if store.keys[created.APIKey.ID].Permissions == nil {
		t.Error("permissions = nil, want empty slice")
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	svc, _, ten := newTestService()

	created, err := svc.Create(context.Background(), CreateRequest{TenantID: ten.ID, Name: "ci"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	v, err := svc.Verify(context.Background(), created.Secret)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if v.TenantID != ten.ID || v.TenantName != "Acme" {
		t.Errorf("verification = %+v", v)
	}
}

func TestVerifyRejectsUnknownSecret(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Verify(context.Background(), "sk_live_bogus")
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("kind = %v, want unauthorized", apperr.KindOf(err))
	}
}

func TestVerifyRejectsRevokedKey(t *testing.T) {
	svc, _, ten := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{TenantID: ten.ID, Name: "ci"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Revoke(ctx, created.APIKey.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	_, err = svc.Verify(ctx, created.Secret)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("kind = %v, want unauthorized", apperr.KindOf(err))
	}
}

func TestVerifyRejectsExpiredKey(t *testing.T) {
	svc, _, ten := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{TenantID: ten.ID, Name: "ci", ExpiresInDays: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	_, err = svc.Verify(ctx, created.Secret)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("kind = %v, want unauthorized", apperr.KindOf(err))
	}
}

func TestVerifySurvivesLastUsedWriteFailure(t *testing.T) {
	svc, store, ten := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{TenantID: ten.ID, Name: "ci"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.touchErr = errors.New("write timeout")
	if _, err := svc.Verify(ctx, created.Secret); err != nil {
		t.Fatalf("Verify failed on best-effort touch: %v", err)
	}
}

func TestSecretsAreUnique(t *testing.T) {
	svc, _, ten := newTestService()
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		created, err := svc.Create(ctx, CreateRequest{TenantID: ten.ID, Name: "ci"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[created.Secret] {
			t.Fatal("duplicate secret generated")
		}
		seen[created.Secret] = true
	}
}
