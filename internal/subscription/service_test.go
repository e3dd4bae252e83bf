package subscription

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
	byTenant map[uuid.UUID]*models.Subscription
}

func (s *fakeStore) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	sub, ok := s.byTenant[tenantID]
	if !ok {
		return nil, apperr.NotFound("Subscription not found")
	}
	cp := *sub
	return &cp, nil
}

func (s *fakeStore) Update(ctx context.Context, sub *models.Subscription) error {
	for tid, existing := range s.byTenant {
		if existing.ID == sub.ID {
			cp := *sub
			s.byTenant[tid] = &cp
			return nil
		}
	}
	return apperr.NotFound("Subscription not found")
}

type fakeBilling struct {
	jobs []queue.SubscriptionProcessPayload
}

func (d *fakeBilling) EnqueueSubscriptionProcess(p queue.SubscriptionProcessPayload) error {
	d.jobs = append(d.jobs, p)
	return nil
}

func trialSubscription(tenantID uuid.UUID) *models.Subscription {
	now := time.Now()
	ends := now.Add(14 * 24 * time.Hour)
	return &models.Subscription{
		ID: uuid.New(), TenantID: tenantID,
		Tier: models.TierFree, Status: models.SubscriptionTrial,
		TrialStartsAt: &now, TrialEndsAt: &ends,
		MaxUsers: 5, MaxProjects: 3,
	}
}

func TestChangeTierUpgradesAndBills(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{byTenant: map[uuid.UUID]*models.Subscription{tenantID: trialSubscription(tenantID)}}
	billing := &fakeBilling{}
	svc := NewService(store, billing)

	sub, err := svc.ChangeTier(context.Background(), tenantID, ChangeTierRequest{Tier: models.TierPro})
	if err != nil {
		t.Fatalf("ChangeTier: %v", err)
	}

	if sub.Tier != models.TierPro || sub.Status != models.SubscriptionActive {
		t.Errorf("subscription = %s/%s, want PRO/ACTIVE", sub.Tier, sub.Status)
	}
	if sub.TrialEndsAt != nil {
		t.Error("trial not ended on upgrade")
	}
	if sub.MaxUsers != 25 || sub.MaxProjects != 20 {
		t.Errorf("limits = %d/%d, want 25/20", sub.MaxUsers, sub.MaxProjects)
	}
	if len(billing.jobs) != 1 || billing.jobs[0].Action != "create_invoice" {
		t.Errorf("billing jobs = %+v, want one create_invoice", billing.jobs)
	}
}

func TestChangeTierSameTierIsNoOp(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{byTenant: map[uuid.UUID]*models.Subscription{tenantID: trialSubscription(tenantID)}}
	billing := &fakeBilling{}
	svc := NewService(store, billing)

	if _, err := svc.ChangeTier(context.Background(), tenantID, ChangeTierRequest{Tier: models.TierFree}); err != nil {
		t.Fatalf("ChangeTier: %v", err)
	}
	if len(billing.jobs) != 0 {
		t.Errorf("billing jobs = %d, want 0", len(billing.jobs))
	}
}

func TestChangeTierRejectsUnknownTier(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{byTenant: map[uuid.UUID]*models.Subscription{tenantID: trialSubscription(tenantID)}}
	svc := NewService(store, &fakeBilling{})

	_, err := svc.ChangeTier(context.Background(), tenantID, ChangeTierRequest{Tier: "PLATINUM"})
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("kind = %v, want bad request", apperr.KindOf(err))
	}
}

func TestCancelIsIdempotentError(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{byTenant: map[uuid.UUID]*models.Subscription{tenantID: trialSubscription(tenantID)}}
	svc := NewService(store, &fakeBilling{})
	ctx := context.Background()

	sub, err := svc.Cancel(ctx, tenantID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if sub.Status != models.SubscriptionCancelled {
		t.Errorf("status = %s, want CANCELLED", sub.Status)
	}

	if _, err := svc.Cancel(ctx, tenantID); apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("kind = %v, want bad request on double cancel", apperr.KindOf(err))
	}
}

func TestPlansCatalogIsStable(t *testing.T) {
	svc := NewService(&fakeStore{}, nil)

	got := svc.Plans()
	if len(got) != 3 {
		t.Fatalf("plans = %d, want 3", len(got))
	}
	got[0].Name = "mutated"
	if svc.Plans()[0].Name == "mutated" {
		t.Error("Plans returns shared backing array")
	}
}
