// Package audit records who did what. Writes arrive through the audit queue
// so request latency never pays for the insert; reads are tenant-scoped.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

type Store interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, tenantID uuid.UUID, f Filter) ([]models.AuditLog, int, error)
}

// Filter narrows a tenant's audit trail. Zero values mean "no constraint".
type Filter struct {
	Action     string
	EntityType string
	UserID     *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

type RecordRequest struct {
	UserID     *uuid.UUID
	TenantID   *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	OldValues  map[string]any
	NewValues  map[string]any
	IPAddress  string
	UserAgent  string
}

func (s *Service) Record(ctx context.Context, req RecordRequest) error {
	if req.Action == "" || req.EntityType == "" {
		return apperr.BadRequest("action and entity type are required")
	}

	entry := &models.AuditLog{
		ID:         uuid.New(),
		TenantID:   req.TenantID,
		UserID:     req.UserID,
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		CreatedAt:  s.now(),
	}
	if req.OldValues != nil {
		raw, err := json.Marshal(req.OldValues)
		if err != nil {
			return apperr.BadRequest("old values are not serializable")
		}
		entry.OldValues = raw
	}
	if req.NewValues != nil {
		raw, err := json.Marshal(req.NewValues)
		if err != nil {
			return apperr.BadRequest("new values are not serializable")
		}
		entry.NewValues = raw
	}

	return s.store.Insert(ctx, entry)
}

type Page struct {
	Items []models.AuditLog `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f Filter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 200 {
		f.Limit = 50
	}
	items, total, err := s.store.List(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.AuditLog{}
	}
	return &Page{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
