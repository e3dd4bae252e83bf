package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/queue"
)

type fakeStore struct {
	tenants       map[uuid.UUID]*models.Tenant
	memberships   []*models.Membership
	subscriptions map[uuid.UUID]*models.Subscription // keyed by tenant
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:       map[uuid.UUID]*models.Tenant{},
		subscriptions: map[uuid.UUID]*models.Subscription{},
	}
}

func (s *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok || t.DeletedAt != nil {
		return nil, apperr.NotFound("tenant not found")
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	for _, t := range s.tenants {
		if t.Slug == slug && t.DeletedAt == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("tenant not found")
}

func (s *fakeStore) CreateWithOwner(ctx context.Context, t *models.Tenant, m *models.Membership, sub *models.Subscription) error {
	for _, existing := range s.tenants {
		if existing.Slug == t.Slug {
			return apperr.Conflict("slug already exists")
		}
	}
	tc, mc, sc := *t, *m, *sub
	s.tenants[t.ID] = &tc
	s.memberships = append(s.memberships, &mc)
	s.subscriptions[t.ID] = &sc
	return nil
}

func (s *fakeStore) Update(ctx context.Context, t *models.Tenant) error {
	if _, ok := s.tenants[t.ID]; !ok {
		return apperr.NotFound("tenant not found")
	}
	cp := *t
	s.tenants[t.ID] = &cp
	return nil
}

func (s *fakeStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	t, ok := s.tenants[id]
	if !ok || t.DeletedAt != nil {
		return apperr.NotFound("tenant not found")
	}
	t.DeletedAt = &at
	return nil
}

func (s *fakeStore) AddMember(ctx context.Context, m *models.Membership) error {
	for _, existing := range s.memberships {
		if existing.TenantID == m.TenantID && existing.UserID == m.UserID {
			return apperr.Conflict("user is already a member of this tenant")
		}
	}
	cp := *m
	s.memberships = append(s.memberships, &cp)
	return nil
}

func (s *fakeStore) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	for i, m := range s.memberships {
		if m.TenantID == tenantID && m.UserID == userID {
			s.memberships = append(s.memberships[:i], s.memberships[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("membership not found")
}

func (s *fakeStore) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	for _, m := range s.memberships {
		if m.TenantID == tenantID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("membership not found")
}

func (s *fakeStore) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range s.memberships {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserTenant, error) {
	var out []UserTenant
	for _, m := range s.memberships {
		if m.UserID != userID {
			continue
		}
		t := s.tenants[m.TenantID]
		if t == nil || t.DeletedAt != nil {
			continue
		}
		ut := UserTenant{TenantID: t.ID, Name: t.Name, Slug: t.Slug, Role: m.Role, IsDefault: m.IsDefault}
		if sub := s.subscriptions[t.ID]; sub != nil {
			ut.SubscriptionTier = sub.Tier
			ut.SubscriptionStatus = sub.Status
		}
		out = append(out, ut)
	}
	return out, nil
}

type fakeAudit struct {
	records []queue.AuditRecordPayload
}

func (d *fakeAudit) EnqueueAuditRecord(p queue.AuditRecordPayload) error {
	d.records = append(d.records, p)
	return nil
}

func TestCreateProvisionsOwnershipAndTrial(t *testing.T) {
	store := newFakeStore()
	auditor := &fakeAudit{}
	svc := NewService(store, nil, auditor)
	ownerID := uuid.New()

	created, err := svc.Create(context.Background(), CreateRequest{Name: "Acme", Slug: "acme"}, ownerID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	m, err := store.GetMembership(context.Background(), created.ID, ownerID)
	if err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if m.Role != models.RoleOwner {
		t.Errorf("role = %s, want OWNER", m.Role)
	}
	if !m.IsDefault {
		t.Error("owner membership should be the default")
	}

	sub := store.subscriptions[created.ID]
	if sub == nil {
		t.Fatal("subscription missing")
	}
	if sub.Tier != models.TierFree || sub.Status != models.SubscriptionTrial {
		t.Errorf("subscription = %s/%s, want FREE/TRIAL", sub.Tier, sub.Status)
	}
	if sub.MaxUsers != 5 || sub.MaxProjects != 3 {
		t.Errorf("limits = %d users / %d projects, want 5/3", sub.MaxUsers, sub.MaxProjects)
	}
	if sub.TrialEndsAt == nil {
		t.Fatal("trial end missing")
	}
	wantEnd := sub.TrialStartsAt.Add(14 * 24 * time.Hour)
	if !sub.TrialEndsAt.Equal(wantEnd) {
		t.Errorf("trial ends %v, want 14 days after start", sub.TrialEndsAt)
	}

	if len(auditor.records) != 1 || auditor.records[0].Action != "tenant.created" {
		t.Errorf("audit records = %+v, want one tenant.created", auditor.records)
	}
}

func TestCreateRejectsBadSlug(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)

	for _, slug := range []string{"", "Hello", "two words", "trailing-", "-leading", "dot.dot"} {
		_, err := svc.Create(context.Background(), CreateRequest{Name: "X", Slug: slug}, uuid.New())
		if apperr.KindOf(err) != apperr.KindBadRequest {
			t.Errorf("slug %q: kind = %v, want bad request", slug, apperr.KindOf(err))
		}
	}
}

func TestCreateConflictsOnDuplicateSlug(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateRequest{Name: "Acme", Slug: "acme"}, uuid.New()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := svc.Create(ctx, CreateRequest{Name: "Other", Slug: "acme"}, uuid.New())
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
}

func TestUpdateSlugRename(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	a, err := svc.Create(ctx, CreateRequest{Name: "Acme", Slug: "acme"}, ownerID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateRequest{Name: "Beta", Slug: "beta"}, ownerID); err != nil {
		t.Fatalf("Create beta: %v", err)
	}

	// Same slug is a no-op, not a conflict.
	same := "acme"
	if _, err := svc.Update(ctx, a.ID, UpdateRequest{Slug: &same}, ownerID); err != nil {
		t.Fatalf("no-op rename: %v", err)
	}

	// Taken slug conflicts.
	taken := "beta"
	if _, err := svc.Update(ctx, a.ID, UpdateRequest{Slug: &taken}, ownerID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}

	// Fresh slug works.
	fresh := "acme-hq"
	updated, err := svc.Update(ctx, a.ID, UpdateRequest{Slug: &fresh}, ownerID)
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if updated.Slug != "acme-hq" {
		t.Errorf("slug = %s, want acme-hq", updated.Slug)
	}
}

func TestDeleteHidesTenant(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	created, err := svc.Create(ctx, CreateRequest{Name: "Acme", Slug: "acme"}, ownerID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID, ownerID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.GetByID(ctx, created.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("GetByID kind = %v, want not found", apperr.KindOf(err))
	}
	if _, err := svc.GetBySlug(ctx, "acme"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("GetBySlug kind = %v, want not found", apperr.KindOf(err))
	}
}

func TestAddMemberConflictsOnDuplicate(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	created, err := svc.Create(ctx, CreateRequest{Name: "Acme", Slug: "acme"}, ownerID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	userID := uuid.New()
	if _, err := svc.AddMember(ctx, created.ID, userID, models.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	_, err = svc.AddMember(ctx, created.ID, userID, models.RoleAdmin)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
}

func TestListByUserCarriesSubscription(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	if _, err := svc.Create(ctx, CreateRequest{Name: "Acme", Slug: "acme"}, ownerID); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tenants, err := svc.ListByUser(ctx, ownerID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(tenants) != 1 {
		t.Fatalf("tenants = %d, want 1", len(tenants))
	}
	if tenants[0].SubscriptionTier != models.TierFree || tenants[0].SubscriptionStatus != models.SubscriptionTrial {
		t.Errorf("subscription = %s/%s, want FREE/TRIAL", tenants[0].SubscriptionTier, tenants[0].SubscriptionStatus)
	}
}
