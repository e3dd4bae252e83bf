package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

type fakeStore struct {
	notifications map[uuid.UUID]*models.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{notifications: map[uuid.UUID]*models.Notification{}}
}

func (s *fakeStore) Create(ctx context.Context, n *models.Notification) error {
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	n, ok := s.notifications[id]
	if !ok {
		return nil, apperr.NotFound("notification not found")
	}
	cp := *n
	return &cp, nil
}

func (s *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]models.Notification, int, error) {
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	return out, len(out), nil
}

func (s *fakeStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	n, ok := s.notifications[id]
	if !ok {
		return apperr.NotFound("notification not found")
	}
	n.Read = true
	n.ReadAt = &at
	return nil
}

func (s *fakeStore) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) error {
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.ReadAt = &at
		}
	}
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.notifications[id]; !ok {
		return apperr.NotFound("notification not found")
	}
	delete(s.notifications, id)
	return nil
}

func TestCreateDefaultsTypeToInfo(t *testing.T) {
	svc := NewService(newFakeStore())

	n, err := svc.Create(context.Background(), CreateRequest{UserID: uuid.New(), Title: "Hello"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Type != models.NotificationInfo {
		t.Errorf("type = %s, want INFO", n.Type)
	}
}

func TestMarkReadIsOwnerChecked(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	owner := uuid.New()

	n, err := svc.Create(ctx, CreateRequest{UserID: owner, Title: "Hello"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.MarkRead(ctx, uuid.New(), n.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("kind = %v, want forbidden for non-owner", apperr.KindOf(err))
	}
	if err := svc.MarkRead(ctx, owner, n.ID); err != nil {
		t.Fatalf("owner MarkRead: %v", err)
	}
	if !store.notifications[n.ID].Read {
		t.Error("notification not marked read")
	}
}

func TestDeleteIsOwnerChecked(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()
	owner := uuid.New()

	n, err := svc.Create(ctx, CreateRequest{UserID: owner, Title: "Hello"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, uuid.New(), n.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("kind = %v, want forbidden for non-owner", apperr.KindOf(err))
	}
	if err := svc.Delete(ctx, owner, n.ID); err != nil {
		t.Fatalf("owner Delete: %v", err)
	}
}

func TestUnreadCountTracksMarkAllRead(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, CreateRequest{UserID: owner, Title: "Hello"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	count, err := svc.CountUnread(ctx, owner)
	if err != nil || count != 3 {
		t.Fatalf("unread = %d (%v), want 3", count, err)
	}

	if err := svc.MarkAllRead(ctx, owner); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	count, err = svc.CountUnread(ctx, owner)
	if err != nil || count != 0 {
		t.Fatalf("unread = %d (%v), want 0", count, err)
	}
}
