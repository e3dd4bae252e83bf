package invitation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

const invitationColumns = "id, email, tenant_id, role, token, status, expires_at, invited_by_id, accepted_at, created_at"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, inv *models.Invitation) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO invitations (id, email, tenant_id, role, token, status, expires_at, invited_by_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.Email, inv.TenantID, inv.Role, inv.Token, inv.Status, inv.ExpiresAt, inv.InvitedByID, inv.CreatedAt,
	)
	if err != nil {
		return apperr.FromPG(fmt.Errorf("insert invitation: %w", err), "invitation already sent to this email", "invitation not found")
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	return s.scanOne(ctx, "SELECT "+invitationColumns+" FROM invitations WHERE id = $1", id)
}

func (s *PostgresStore) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	return s.scanOne(ctx, "SELECT "+invitationColumns+" FROM invitations WHERE token = $1", token)
}

func (s *PostgresStore) GetPendingByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.QueryRow(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE tenant_id = $1 AND email = $2 AND status = $3",
		tenantID, email, models.InvitationPending,
	).Scan(
		&inv.ID, &inv.Email, &inv.TenantID, &inv.Role, &inv.Token, &inv.Status,
		&inv.ExpiresAt, &inv.InvitedByID, &inv.AcceptedAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, apperr.FromPG(fmt.Errorf("get pending invitation: %w", err), "invitation already sent to this email", "invitation not found")
	}
	return &inv, nil
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg interface{}) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&inv.ID, &inv.Email, &inv.TenantID, &inv.Role, &inv.Token, &inv.Status,
		&inv.ExpiresAt, &inv.InvitedByID, &inv.AcceptedAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, apperr.FromPG(fmt.Errorf("get invitation: %w", err), "invitation conflict", "invitation not found")
	}
	return &inv, nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.Invitation, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM invitations WHERE tenant_id = $1", tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invitations: %w", err)
	}

	rows, err := s.db.Query(ctx,
		"SELECT "+invitationColumns+" FROM invitations WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(
			&inv.ID, &inv.Email, &inv.TenantID, &inv.Role, &inv.Token, &inv.Status,
			&inv.ExpiresAt, &inv.InvitedByID, &inv.AcceptedAt, &inv.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, total, rows.Err()
}

func (s *PostgresStore) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, models.InvitationExpired)
}

func (s *PostgresStore) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, models.InvitationCancelled)
}

// transition only moves PENDING rows; a concurrent transition loses and the
// caller re-reads the winner's status.
func (s *PostgresStore) transition(ctx context.Context, id uuid.UUID, to models.InvitationStatus) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE invitations SET status = $1 WHERE id = $2 AND status = $3",
		to, id, models.InvitationPending,
	)
	if err != nil {
		return fmt.Errorf("transition invitation to %s: %w", to, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.BadRequest("invitation is no longer pending")
	}
	return nil
}

func (s *PostgresStore) RotateToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE invitations SET token = $1, expires_at = $2 WHERE id = $3 AND status = $4",
		token, expiresAt, id, models.InvitationPending,
	)
	if err != nil {
		return fmt.Errorf("rotate invitation token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.BadRequest("invitation is no longer pending")
	}
	return nil
}

func (s *PostgresStore) AcceptAndJoin(ctx context.Context, invitationID uuid.UUID, acceptedAt time.Time, m *models.Membership) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"UPDATE invitations SET status = $1, accepted_at = $2 WHERE id = $3 AND status = $4",
		models.InvitationAccepted, acceptedAt, invitationID, models.InvitationPending,
	)
	if err != nil {
		return fmt.Errorf("mark invitation accepted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.BadRequest("invitation is no longer pending")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO memberships (id, tenant_id, user_id, role, is_default, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.TenantID, m.UserID, m.Role, m.IsDefault, m.JoinedAt,
	)
	if err != nil {
		return apperr.FromPG(fmt.Errorf("insert membership: %w", err), "you are already a member of this tenant", "membership not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit accept tx: %w", err)
	}
	return nil
}
