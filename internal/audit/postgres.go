package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stacklane/saasbase/internal/models"
)

const auditColumns = "id, tenant_id, user_id, action, entity_type, entity_id, old_values, new_values, ip_address, user_agent, created_at"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, entry *models.AuditLog) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (id, tenant_id, user_id, action, entity_type, entity_id, old_values, new_values, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.TenantID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.OldValues, entry.NewValues, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID uuid.UUID, f Filter) ([]models.AuditLog, int, error) {
	conds := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	addCond := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Action != "" {
		addCond("action = $%d", f.Action)
	}
	if f.EntityType != "" {
		addCond("entity_type = $%d", f.EntityType)
	}
	if f.UserID != nil {
		addCond("user_id = $%d", *f.UserID)
	}
	if f.From != nil {
		addCond("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		addCond("created_at <= $%d", *f.To)
	}

	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM audit_logs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		auditColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var items []models.AuditLog
	for rows.Next() {
		var e models.AuditLog
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID,
			&e.OldValues, &e.NewValues, &e.IPAddress, &e.UserAgent, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
