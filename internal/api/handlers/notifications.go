package handlers

import (
	"net/http"

	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/notification"
	"github.com/stacklane/saasbase/internal/tenant"
)

type NotificationHandler struct {
	notifications *notification.Service
}

func NewNotificationHandler(notifications *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}

	page, limit := pageParams(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	result, err := h.notifications.ListByUser(r.Context(), u.ID, unreadOnly, page, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}

	count, err := h.notifications.CountUnread(r.Context(), u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), u.ID, id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "marked read"})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), u.ID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "all marked read"})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.notifications.Delete(r.Context(), u.ID, id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}
