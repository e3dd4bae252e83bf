// Package invitation implements the token-based membership invitation
// lifecycle: PENDING invitations either get accepted, expire lazily on read,
// or are cancelled; every transition is one-way.
package invitation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/queue"
)

const invitationTTL = 7 * 24 * time.Hour

type Store interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	GetPendingByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.Invitation, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.Invitation, int, error)
	MarkExpired(ctx context.Context, id uuid.UUID) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
	RotateToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	// AcceptAndJoin flips the invitation to ACCEPTED and inserts the
	// membership in one transaction; both land or neither does.
	AcceptAndJoin(ctx context.Context, invitationID uuid.UUID, acceptedAt time.Time, m *models.Membership) error
}

type TenantDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Dispatcher interface {
	EnqueueInvitationEmail(payload queue.InvitationEmailPayload) error
}

type Service struct {
	store      Store
	tenants    TenantDirectory
	users      UserDirectory
	dispatcher Dispatcher
	now        func() time.Time
}

func NewService(store Store, tenants TenantDirectory, users UserDirectory, dispatcher Dispatcher) *Service {
	return &Service{
		store:      store,
		tenants:    tenants,
		users:      users,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

type CreateRequest struct {
	Email    string      `json:"email"`
	TenantID uuid.UUID   `json:"tenant_id"`
	Role     models.Role `json:"role,omitempty"`
}

type Created struct {
	Invitation  models.Invitation `json:"invitation"`
	InviterName string            `json:"inviter_name"`
	TenantName  string            `json:"tenant_name"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest, inviterID uuid.UUID) (*Created, error) {
	if req.Email == "" {
		return nil, apperr.BadRequest("email is required")
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	t, err := s.tenants.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	inviterMembership, err := s.tenants.GetMembership(ctx, req.TenantID, inviterID)
	if err != nil || inviterMembership == nil {
		if err == nil || apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Forbidden("you are not a member of this tenant")
		}
		return nil, err
	}

	// Invitee may already hold an account and a membership.
	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		if _, err := s.tenants.GetMembership(ctx, req.TenantID, existing.ID); err == nil {
			return nil, apperr.Conflict("user is already a member of this tenant")
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	if _, err := s.store.GetPendingByTenantAndEmail(ctx, req.TenantID, req.Email); err == nil {
		return nil, apperr.Conflict("invitation already sent to this email")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	inviter, err := s.users.GetByID(ctx, inviterID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &models.Invitation{
		ID:          uuid.New(),
		Email:       req.Email,
		TenantID:    req.TenantID,
		Role:        role,
		Token:       newToken(),
		Status:      models.InvitationPending,
		ExpiresAt:   now.Add(invitationTTL),
		InvitedByID: inviterID,
		CreatedAt:   now,
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.sendEmail(inv, inviter.FullName(), t.Name)

	return &Created{Invitation: *inv, InviterName: inviter.FullName(), TenantName: t.Name}, nil
}

type Summary struct {
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	TenantID  uuid.UUID   `json:"tenant_id"`
	Tenant    string      `json:"tenant"`
	InvitedBy string      `json:"invited_by"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// VerifyToken is the read-only lookup an invitee hits before signing up.
// Expiry is detected and persisted here, not by a background sweep.
func (s *Service) VerifyToken(ctx context.Context, token string) (*Summary, error) {
	inv, err := s.gatePending(ctx, token)
	if err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}
	inviter, err := s.users.GetByID(ctx, inv.InvitedByID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Email:     inv.Email,
		Role:      inv.Role,
		TenantID:  inv.TenantID,
		Tenant:    t.Name,
		InvitedBy: inviter.FullName(),
		ExpiresAt: inv.ExpiresAt,
	}, nil
}

type AcceptResult struct {
	TenantID   uuid.UUID   `json:"tenant_id"`
	TenantName string      `json:"tenant_name"`
	Role       models.Role `json:"role"`
}

func (s *Service) Accept(ctx context.Context, token string, userID uuid.UUID) (*AcceptResult, error) {
	inv, err := s.gatePending(ctx, token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// A leaked token must not let a different account join.
	if !strings.EqualFold(u.Email, inv.Email) {
		return nil, apperr.Forbidden("this invitation was sent to a different email")
	}

	if _, err := s.tenants.GetMembership(ctx, inv.TenantID, userID); err == nil {
		return nil, apperr.Conflict("you are already a member of this tenant")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	m := &models.Membership{
		ID:       uuid.New(),
		TenantID: inv.TenantID,
		UserID:   userID,
		Role:     inv.Role,
		JoinedAt: now,
	}
	if err := s.store.AcceptAndJoin(ctx, inv.ID, now, m); err != nil {
		return nil, err
	}

	return &AcceptResult{TenantID: inv.TenantID, TenantName: t.Name, Role: inv.Role}, nil
}

// Resend rotates the token and resets the expiry window; the previous token
// becomes permanently unknown.
func (s *Service) Resend(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) (*models.Invitation, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvitationPending {
		return nil, apperr.BadRequest("can only resend pending invitations")
	}
	if err := s.requireMembership(ctx, inv.TenantID, requesterID); err != nil {
		return nil, err
	}

	inv.Token = newToken()
	inv.ExpiresAt = s.now().Add(invitationTTL)
	if err := s.store.RotateToken(ctx, inv.ID, inv.Token, inv.ExpiresAt); err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}
	inviter, err := s.users.GetByID(ctx, inv.InvitedByID)
	if err != nil {
		return nil, err
	}
	s.sendEmail(inv, inviter.FullName(), t.Name)

	return inv, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) error {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != models.InvitationPending {
		return apperr.BadRequest("can only cancel pending invitations")
	}
	if err := s.requireMembership(ctx, inv.TenantID, requesterID); err != nil {
		return err
	}
	return s.store.MarkCancelled(ctx, id)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.Invitation, int, error) {
	return s.store.ListByTenant(ctx, tenantID, limit, offset)
}

// gatePending looks an invitation up by token and enforces the shared
// PENDING/expiry preconditions of verify and accept.
func (s *Service) gatePending(ctx context.Context, token string) (*models.Invitation, error) {
	inv, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if inv.Status != models.InvitationPending {
		return nil, apperr.Newf(apperr.KindBadRequest, "invitation is %s", strings.ToLower(string(inv.Status)))
	}

	if s.now().After(inv.ExpiresAt) {
		if err := s.store.MarkExpired(ctx, inv.ID); err != nil {
			return nil, err
		}
		return nil, apperr.BadRequest("invitation has expired")
	}
	return inv, nil
}

func (s *Service) requireMembership(ctx context.Context, tenantID, userID uuid.UUID) error {
	if _, err := s.tenants.GetMembership(ctx, tenantID, userID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.Forbidden("you are not a member of this tenant")
		}
		return err
	}
	return nil
}

func (s *Service) sendEmail(inv *models.Invitation, inviterName, tenantName string) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.EnqueueInvitationEmail(queue.InvitationEmailPayload{
		Email:       inv.Email,
		InviterName: inviterName,
		TenantName:  tenantName,
		Token:       inv.Token,
		ExpiresAt:   inv.ExpiresAt,
	})
	if err != nil {
		slog.Error("failed to enqueue invitation email", "error", err, "email", inv.Email)
	}
}
