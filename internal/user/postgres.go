package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

const notDeleted = " AND deleted_at IS NULL"

const userColumns = `id, email, password_hash, first_name, last_name, status,
	refresh_token_hash, email_verified, last_login_at, created_at, updated_at, deleted_at`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, status, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Status, u.EmailVerified, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return apperr.FromPG(fmt.Errorf("insert user: %w", err), "email already exists", "user not found")
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1"+notDeleted, id)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1"+notDeleted, email)
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Status,
		&u.RefreshTokenHash, &u.EmailVerified, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		return nil, apperr.FromPG(fmt.Errorf("get user: %w", err), "email already exists", "user not found")
	}
	return &u, nil
}

func (s *PostgresStore) UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	_, err := s.db.Exec(ctx,
		"UPDATE users SET refresh_token_hash = $1, updated_at = now() WHERE id = $2", hash, id,
	)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.Exec(ctx,
		"UPDATE users SET last_login_at = $1 WHERE id = $2", at, id,
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE users SET deleted_at = $1 WHERE id = $2"+notDeleted, at, id,
	)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
