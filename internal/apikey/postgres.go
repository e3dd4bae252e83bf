package apikey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

const apiKeyColumns = "id, tenant_id, name, key_prefix, key_hash, permissions, is_active, last_used_at, expires_at, created_at"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, k *models.APIKey) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, tenant_id, name, key_prefix, key_hash, permissions, is_active, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		k.ID, k.TenantID, k.Name, k.KeyPrefix, k.KeyHash, k.Permissions, k.IsActive, k.ExpiresAt, k.CreatedAt,
	)
	if err != nil {
		return apperr.FromPG(fmt.Errorf("insert api key: %w", err), "API key already exists", "API key not found")
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	return s.scanOne(ctx, "SELECT "+apiKeyColumns+" FROM api_keys WHERE id = $1", id)
}

func (s *PostgresStore) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	return s.scanOne(ctx, "SELECT "+apiKeyColumns+" FROM api_keys WHERE key_hash = $1", hash)
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg interface{}) (*models.APIKey, error) {
	var k models.APIKey
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&k.ID, &k.TenantID, &k.Name, &k.KeyPrefix, &k.KeyHash, &k.Permissions,
		&k.IsActive, &k.LastUsedAt, &k.ExpiresAt, &k.CreatedAt,
	)
	if err != nil {
		return nil, apperr.FromPG(fmt.Errorf("get api key: %w", err), "API key conflict", "API key not found")
	}
	return &k, nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.APIKey, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+apiKeyColumns+" FROM api_keys WHERE tenant_id = $1 ORDER BY created_at DESC",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("query api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(
			&k.ID, &k.TenantID, &k.Name, &k.KeyPrefix, &k.KeyHash, &k.Permissions,
			&k.IsActive, &k.LastUsedAt, &k.ExpiresAt, &k.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.db.Exec(ctx, "UPDATE api_keys SET is_active = $1 WHERE id = $2", active, id)
	if err != nil {
		return fmt.Errorf("set api key active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("API key not found")
	}
	return nil
}

func (s *PostgresStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.Exec(ctx, "UPDATE api_keys SET last_used_at = $1 WHERE id = $2", at, id)
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}
