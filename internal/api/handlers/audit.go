package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/audit"
)

type AuditHandler struct {
	logs *audit.Service
}

func NewAuditHandler(logs *audit.Service) *AuditHandler {
	return &AuditHandler{logs: logs}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	q := r.URL.Query()
	f := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
	}
	f.Page, f.Limit = pageParams(r)

	if raw := q.Get("user_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			f.UserID = &id
		}
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.From = &t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.To = &t
		}
	}

	result, err := h.logs.List(r.Context(), tenantID, f)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
