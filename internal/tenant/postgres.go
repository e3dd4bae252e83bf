package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

// Soft-deleted tenants are invisible to every read path; the predicate is
// shared so no query forgets it.
const notDeleted = " AND deleted_at IS NULL"

const tenantColumns = "id, name, slug, description, owner_id, status, created_at, updated_at, deleted_at"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.scanOne(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE id = $1"+notDeleted, id)
}

func (s *PostgresStore) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return s.scanOne(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE slug = $1"+notDeleted, slug)
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg interface{}) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Description, &t.OwnerID, &t.Status,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		return nil, apperr.FromPG(fmt.Errorf("get tenant: %w", err), "slug already exists", "tenant not found")
	}
	return &t, nil
}

func (s *PostgresStore) CreateWithOwner(ctx context.Context, t *models.Tenant, m *models.Membership, sub *models.Subscription) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create tenant tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO tenants (id, name, slug, description, owner_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Name, t.Slug, t.Description, t.OwnerID, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return apperr.FromPG(fmt.Errorf("insert tenant: %w", err), "slug already exists", "tenant not found")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO memberships (id, tenant_id, user_id, role, is_default, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.TenantID, m.UserID, m.Role, m.IsDefault, m.JoinedAt,
	)
	if err != nil {
		return apperr.FromPG(fmt.Errorf("insert owner membership: %w", err), "user is already a member of this tenant", "membership not found")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO subscriptions (id, tenant_id, tier, status, trial_starts_at, trial_ends_at, max_users, max_projects, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.TenantID, sub.Tier, sub.Status, sub.TrialStartsAt, sub.TrialEndsAt,
		sub.MaxUsers, sub.MaxProjects, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create tenant tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, t *models.Tenant) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET name = $1, slug = $2, description = $3, status = $4, updated_at = $5
		 WHERE id = $6`+notDeleted,
		t.Name, t.Slug, t.Description, t.Status, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return apperr.FromPG(fmt.Errorf("update tenant: %w", err), "slug already exists", "tenant not found")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant not found")
	}
	return nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE tenants SET deleted_at = $1 WHERE id = $2"+notDeleted, at, id,
	)
	if err != nil {
		return fmt.Errorf("soft delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant not found")
	}
	return nil
}

func (s *PostgresStore) AddMember(ctx context.Context, m *models.Membership) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO memberships (id, tenant_id, user_id, role, is_default, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.TenantID, m.UserID, m.Role, m.IsDefault, m.JoinedAt,
	)
	if err != nil {
		return apperr.FromPG(fmt.Errorf("insert membership: %w", err), "user is already a member of this tenant", "membership not found")
	}
	return nil
}

func (s *PostgresStore) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM memberships WHERE tenant_id = $1 AND user_id = $2", tenantID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("membership not found")
	}
	return nil
}

func (s *PostgresStore) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, role, is_default, joined_at
		 FROM memberships WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID,
	).Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.IsDefault, &m.JoinedAt)
	if err != nil {
		return nil, apperr.FromPG(fmt.Errorf("get membership: %w", err), "membership already exists", "membership not found")
	}
	return &m, nil
}

func (s *PostgresStore) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]models.Membership, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, user_id, role, is_default, joined_at
		 FROM memberships WHERE tenant_id = $1 ORDER BY joined_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.IsDefault, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListMemberships returns the caller's raw membership records; the role
// authorization engine evaluates against this set.
func (s *PostgresStore) ListMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.tenant_id, m.user_id, m.role, m.is_default, m.joined_at
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id AND t.deleted_at IS NULL
		 WHERE m.user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.IsDefault, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserTenant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT t.id, t.name, t.slug, m.role, m.is_default, s.tier, s.status
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id AND t.deleted_at IS NULL
		 JOIN subscriptions s ON s.tenant_id = t.id
		 WHERE m.user_id = $1
		 ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user tenants: %w", err)
	}
	defer rows.Close()

	var tenants []UserTenant
	for rows.Next() {
		var ut UserTenant
		if err := rows.Scan(&ut.TenantID, &ut.Name, &ut.Slug, &ut.Role, &ut.IsDefault, &ut.SubscriptionTier, &ut.SubscriptionStatus); err != nil {
			return nil, fmt.Errorf("scan user tenant: %w", err)
		}
		tenants = append(tenants, ut)
	}
	return tenants, rows.Err()
}
