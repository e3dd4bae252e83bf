// Package notification stores per-user in-app notifications. Rows are
// created by the notification queue worker, never directly by API handlers.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

type CreateRequest struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	Type     models.NotificationType
	Title    string
	Content  string
	Data     map[string]any
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Notification, error) {
	if req.Title == "" {
		return nil, apperr.BadRequest("title is required")
	}

	typ := req.Type
	if typ == "" {
		typ = models.NotificationInfo
	}

	var data json.RawMessage
	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			return nil, apperr.BadRequest("notification data is not serializable")
		}
		data = raw
	}

	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		TenantID:  req.TenantID,
		Type:      typ,
		Title:     req.Title,
		Content:   req.Content,
		Data:      data,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

type Page struct {
	Items []models.Notification `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, total, err := s.store.ListByUser(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

// MarkRead is owner-checked: a user can only acknowledge their own rows.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperr.Forbidden("notification belongs to another user")
	}
	if n.Read {
		return nil
	}
	return s.store.MarkRead(ctx, id, s.now())
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.store.MarkAllRead(ctx, userID, s.now())
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperr.Forbidden("notification belongs to another user")
	}
	return s.store.Delete(ctx, id)
}
