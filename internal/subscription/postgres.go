package subscription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

const subscriptionColumns = "id, tenant_id, tier, status, trial_starts_at, trial_ends_at, max_users, max_projects, created_at, updated_at"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.QueryRow(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE tenant_id = $1",
		tenantID,
	).Scan(
		&sub.ID, &sub.TenantID, &sub.Tier, &sub.Status, &sub.TrialStartsAt, &sub.TrialEndsAt,
		&sub.MaxUsers, &sub.MaxProjects, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, apperr.FromPG(fmt.Errorf("get subscription: %w", err), "subscription conflict", "Subscription not found")
	}
	return &sub, nil
}

func (s *PostgresStore) Update(ctx context.Context, sub *models.Subscription) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE subscriptions
		 SET tier = $1, status = $2, trial_ends_at = $3, max_users = $4, max_projects = $5, updated_at = $6
		 WHERE id = $7`,
		sub.Tier, sub.Status, sub.TrialEndsAt, sub.MaxUsers, sub.MaxProjects, sub.UpdatedAt, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Subscription not found")
	}
	return nil
}
