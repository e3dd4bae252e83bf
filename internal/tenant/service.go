package tenant

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/queue"
)

const (
	trialDays          = 14
	defaultMaxUsers    = 5
	defaultMaxProjects = 3
	cacheTTL           = 5 * time.Minute
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Store is the persistence surface for tenants, memberships and the
// subscription created alongside a tenant. CreateWithOwner is a single
// transaction: tenant, OWNER membership and subscription all land or none do.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	CreateWithOwner(ctx context.Context, t *models.Tenant, m *models.Membership, sub *models.Subscription) error
	Update(ctx context.Context, t *models.Tenant) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	AddMember(ctx context.Context, m *models.Membership) error
	RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error
	GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]models.Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]UserTenant, error)
}

// Cache fronts hot id/slug lookups; a nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Dispatcher hands side effects to the job queue; delivery stays off the
// request's critical path.
type Dispatcher interface {
	EnqueueAuditRecord(payload queue.AuditRecordPayload) error
}

// UserTenant is a tenant as seen from one user's membership.
type UserTenant struct {
	TenantID           uuid.UUID                 `json:"tenant_id"`
	Name               string                    `json:"name"`
	Slug               string                    `json:"slug"`
	Role               models.Role               `json:"role"`
	IsDefault          bool                      `json:"is_default"`
	SubscriptionTier   models.SubscriptionTier   `json:"subscription_tier"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
}

type Service struct {
	store      Store
	cache      Cache
	dispatcher Dispatcher
}

func NewService(store Store, cache Cache, dispatcher Dispatcher) *Service {
	return &Service{store: store, cache: cache, dispatcher: dispatcher}
}

type CreateRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// Create inserts the tenant, an OWNER membership for ownerID and a FREE/TRIAL
// subscription as one atomic unit. The slug pre-check gives a friendly
// Conflict; the unique index on slug is what actually wins races.
func (s *Service) Create(ctx context.Context, req CreateRequest, ownerID uuid.UUID) (*models.Tenant, error) {
	if req.Name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	if !slugPattern.MatchString(req.Slug) {
		return nil, apperr.BadRequest("slug must be lowercase kebab-case")
	}

	if _, err := s.store.GetBySlug(ctx, req.Slug); err == nil {
		return nil, apperr.Conflict("slug already exists")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	now := time.Now()
	trialEnds := now.Add(trialDays * 24 * time.Hour)

	t := &models.Tenant{
		ID:          uuid.New(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		OwnerID:     ownerID,
		Status:      models.TenantActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m := &models.Membership{
		ID:        uuid.New(),
		TenantID:  t.ID,
		UserID:    ownerID,
		Role:      models.RoleOwner,
		IsDefault: true,
		JoinedAt:  now,
	}
	sub := &models.Subscription{
		ID:            uuid.New(),
		TenantID:      t.ID,
		Tier:          models.TierFree,
		Status:        models.SubscriptionTrial,
		TrialStartsAt: &now,
		TrialEndsAt:   &trialEnds,
		MaxUsers:      defaultMaxUsers,
		MaxProjects:   defaultMaxProjects,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateWithOwner(ctx, t, m, sub); err != nil {
		return nil, err
	}

	s.audit(ownerID, t.ID, "tenant.created", "tenant", t.ID.String(), nil, map[string]any{
		"name": t.Name, "slug": t.Slug,
	})
	return t, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	key := "tenant:id:" + id.String()
	if s.cache != nil {
		var cached models.Tenant
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, t, cacheTTL); err != nil {
			slog.Warn("tenant cache set failed", "error", err)
		}
	}
	return t, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	key := "tenant:slug:" + slug
	if s.cache != nil {
		var cached models.Tenant
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	t, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, t, cacheTTL); err != nil {
			slog.Warn("tenant cache set failed", "error", err)
		}
	}
	return t, nil
}

type UpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest, actorID uuid.UUID) (*models.Tenant, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	old := map[string]any{"name": t.Name, "slug": t.Slug}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	// Slug rename: no-op when unchanged, Conflict when another tenant holds it.
	if req.Slug != nil && *req.Slug != t.Slug {
		if !slugPattern.MatchString(*req.Slug) {
			return nil, apperr.BadRequest("slug must be lowercase kebab-case")
		}
		if existing, err := s.store.GetBySlug(ctx, *req.Slug); err == nil && existing.ID != t.ID {
			return nil, apperr.Conflict("slug already exists")
		} else if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
		s.invalidate(ctx, t)
		t.Slug = *req.Slug
	}

	t.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, t)

	s.audit(actorID, t.ID, "tenant.updated", "tenant", t.ID.String(), old, map[string]any{
		"name": t.Name, "slug": t.Slug,
	})
	return t, nil
}

// Delete marks the tenant deleted; rows stay but every id/slug lookup now
// reports NotFound.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.SoftDelete(ctx, id, time.Now()); err != nil {
		return err
	}
	s.invalidate(ctx, t)

	s.audit(actorID, t.ID, "tenant.deleted", "tenant", t.ID.String(), map[string]any{
		"name": t.Name, "slug": t.Slug,
	}, nil)
	return nil
}

func (s *Service) AddMember(ctx context.Context, tenantID, userID uuid.UUID, role models.Role) (*models.Membership, error) {
	if _, err := s.store.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}

	if _, err := s.store.GetMembership(ctx, tenantID, userID); err == nil {
		return nil, apperr.Conflict("user is already a member of this tenant")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	m := &models.Membership{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	if err := s.store.AddMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	if _, err := s.store.GetMembership(ctx, tenantID, userID); err != nil {
		return err
	}
	return s.store.RemoveMember(ctx, tenantID, userID)
}

func (s *Service) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	return s.store.GetMembership(ctx, tenantID, userID)
}

func (s *Service) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]models.Membership, error) {
	if _, err := s.store.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, tenantID)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserTenant, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) invalidate(ctx context.Context, t *models.Tenant) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, "tenant:id:"+t.ID.String(), "tenant:slug:"+t.Slug); err != nil {
		slog.Warn("tenant cache invalidation failed", "error", err, "tenant_id", t.ID)
	}
}

func (s *Service) audit(actorID, tenantID uuid.UUID, action, entityType, entityID string, oldVals, newVals map[string]any) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.EnqueueAuditRecord(queue.AuditRecordPayload{
		UserID:     actorID.String(),
		TenantID:   tenantID.String(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  oldVals,
		NewValues:  newVals,
	})
	if err != nil {
		slog.Error("failed to enqueue audit record", "error", err, "action", action)
	}
}
