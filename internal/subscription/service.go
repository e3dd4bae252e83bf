// Package subscription manages tenant billing plans. Every tenant gets a
// subscription at creation time; this package reads and updates it.
package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/queue"
)

type Store interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
}

// Dispatcher hands subscription work to the billing queue.
type Dispatcher interface {
	EnqueueSubscriptionProcess(payload queue.SubscriptionProcessPayload) error
}

type Service struct {
	store      Store
	dispatcher Dispatcher
	now        func() time.Time
}

func NewService(store Store, dispatcher Dispatcher) *Service {
	return &Service{store: store, dispatcher: dispatcher, now: time.Now}
}

// Plan is a static catalog entry, not a database row.
type Plan struct {
	Tier        models.SubscriptionTier `json:"tier"`
	Name        string                  `json:"name"`
	Price       float64                 `json:"price"`
	MaxUsers    int                     `json:"max_users"`
	MaxProjects int                     `json:"max_projects"`
	Features    []string                `json:"features"`
}

var plans = []Plan{
	{
		Tier:        models.TierFree,
		Name:        "Free",
		Price:       0,
		MaxUsers:    5,
		MaxProjects: 3,
		Features:    []string{"Basic support", "Community access"},
	},
	{
		Tier:        models.TierPro,
		Name:        "Pro",
		Price:       29,
		MaxUsers:    25,
		MaxProjects: 20,
		Features:    []string{"Priority support", "Advanced analytics", "API access"},
	},
	{
		Tier:        models.TierEnterprise,
		Name:        "Enterprise",
		Price:       99,
		MaxUsers:    -1, // unlimited
		MaxProjects: -1,
		Features:    []string{"Dedicated support", "SSO", "Audit logs", "Custom integrations"},
	},
}

func (s *Service) Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

func (s *Service) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	return s.store.GetByTenant(ctx, tenantID)
}

type ChangeTierRequest struct {
	Tier models.SubscriptionTier `json:"tier"`
}

// ChangeTier moves a tenant onto a new plan and queues invoice generation.
// Moving off the FREE tier ends any running trial.
func (s *Service) ChangeTier(ctx context.Context, tenantID uuid.UUID, req ChangeTierRequest) (*models.Subscription, error) {
	plan, ok := planFor(req.Tier)
	if !ok {
		return nil, apperr.BadRequest("unknown subscription tier")
	}

	sub, err := s.store.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Tier == req.Tier {
		return sub, nil
	}

	sub.Tier = plan.Tier
	sub.MaxUsers = plan.MaxUsers
	sub.MaxProjects = plan.MaxProjects
	sub.UpdatedAt = s.now()
	if plan.Tier != models.TierFree {
		sub.Status = models.SubscriptionActive
		sub.TrialEndsAt = nil
	}

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}

	if s.dispatcher != nil && plan.Price > 0 {
		if err := s.dispatcher.EnqueueSubscriptionProcess(queue.SubscriptionProcessPayload{
			TenantID:       tenantID.String(),
			SubscriptionID: sub.ID.String(),
			Action:         "create_invoice",
		}); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

// Cancel marks the subscription cancelled. The tenant keeps access until an
// operator or a billing job downgrades it.
func (s *Service) Cancel(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.store.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionCancelled {
		return nil, apperr.BadRequest("subscription is already cancelled")
	}

	sub.Status = models.SubscriptionCancelled
	sub.UpdatedAt = s.now()
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func planFor(tier models.SubscriptionTier) (Plan, bool) {
	for _, p := range plans {
		if p.Tier == tier {
			return p, true
		}
	}
	return Plan{}, false
}
