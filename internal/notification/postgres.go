package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

const notificationColumns = "id, user_id, tenant_id, type, title, content, data, read, read_at, created_at"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (id, user_id, tenant_id, type, title, content, data, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, n.TenantID, n.Type, n.Title, n.Content, n.Data, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	err := s.db.QueryRow(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = $1", id,
	).Scan(
		&n.ID, &n.UserID, &n.TenantID, &n.Type, &n.Title, &n.Content, &n.Data,
		&n.Read, &n.ReadAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, apperr.FromPG(fmt.Errorf("get notification: %w", err), "notification conflict", "notification not found")
	}
	return &n, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]models.Notification, int, error) {
	where := "WHERE user_id = $1"
	if unreadOnly {
		where += " AND read = FALSE"
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications "+where, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := s.db.Query(ctx,
		"SELECT "+notificationColumns+" FROM notifications "+where+" ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var items []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.TenantID, &n.Type, &n.Title, &n.Content, &n.Data,
			&n.Read, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (s *PostgresStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE", userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE notifications SET read = TRUE, read_at = $1 WHERE id = $2", at, id,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := s.db.Exec(ctx,
		"UPDATE notifications SET read = TRUE, read_at = $1 WHERE user_id = $2 AND read = FALSE", at, userID,
	)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}
