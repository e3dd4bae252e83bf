package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/queue"
	"github.com/stacklane/saasbase/internal/tenant"
)

type Store interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

type TenantLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]tenant.UserTenant, error)
}

type Dispatcher interface {
	EnqueueWelcomeEmail(payload queue.WelcomeEmailPayload) error
}

type Service struct {
	store      Store
	tenants    TenantLister
	issuer     *TokenIssuer
	dispatcher Dispatcher
}

func NewService(store Store, tenants TenantLister, issuer *TokenIssuer, dispatcher Dispatcher) *Service {
	return &Service{store: store, tenants: tenants, issuer: issuer, dispatcher: dispatcher}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

type AuthResult struct {
	User   *models.User `json:"user"`
	Tokens *TokenPair   `json:"tokens"`
}

const minPasswordLength = 8

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if req.Email == "" || req.FirstName == "" {
		return nil, apperr.BadRequest("email and first name are required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.BadRequest("password must be at least 8 characters")
	}

	if _, err := s.store.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("email already exists")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	now := time.Now()
	u := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Status:       models.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	tokens, err := s.issueAndStore(ctx, u)
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		err := s.dispatcher.EnqueueWelcomeEmail(queue.WelcomeEmailPayload{
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		})
		if err != nil {
			slog.Error("failed to enqueue welcome email", "error", err, "email", u.Email)
		}
	}

	return &AuthResult{User: u, Tokens: tokens}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if u.Status != models.UserActive {
		return nil, apperr.Unauthorized("account is not active")
	}

	tokens, err := s.issueAndStore(ctx, u)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateLastLogin(ctx, u.ID, time.Now()); err != nil {
		slog.Warn("failed to record last login", "error", err, "user_id", u.ID)
	}

	return &AuthResult{User: u, Tokens: tokens}, nil
}

// Refresh rotates the token pair. The stored digest must match the presented
// token, so a rotated-out refresh token can never be replayed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("access denied")
		}
		return nil, err
	}
	if u.RefreshTokenHash == nil || !tokenMatches(*u.RefreshTokenHash, refreshToken) {
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	return s.issueAndStore(ctx, u)
}

func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.store.UpdateRefreshTokenHash(ctx, userID, nil)
}

type Profile struct {
	User    *models.User        `json:"user"`
	Tenants []tenant.UserTenant `json:"tenants"`
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tenants, err := s.tenants.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Tenants: tenants}, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetByEmail(ctx, email)
}

func (s *Service) issueAndStore(ctx context.Context, u *models.User) (*TokenPair, error) {
	tokens, err := s.issuer.Issue(u.ID, u.Email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "issue tokens", err)
	}
	hash := hashToken(tokens.RefreshToken)
	if err := s.store.UpdateRefreshTokenHash(ctx, u.ID, &hash); err != nil {
		return nil, err
	}
	return tokens, nil
}
