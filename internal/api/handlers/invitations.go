package handlers

import (
	"net/http"

	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/invitation"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/tenant"
)

type InvitationHandler struct {
	invitations *invitation.Service
}

func NewInvitationHandler(invitations *invitation.Service) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}

	var req invitation.CreateRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	created, err := h.invitations.Create(r.Context(), req, u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Verify is unauthenticated: invitees check a token before they have an
// account.
func (h *InvitationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeErr(w, apperr.BadRequest("token is required"))
		return
	}

	summary, err := h.invitations.VerifyToken(r.Context(), token)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Token == "" {
		writeErr(w, apperr.BadRequest("token is required"))
		return
	}

	result, err := h.invitations.Accept(r.Context(), req.Token, u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
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

	inv, err := h.invitations.Resend(r.Context(), id, u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	if err := h.invitations.Cancel(r.Context(), id, u.ID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "invitation cancelled"})
}

func (h *InvitationHandler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	page, limit := pageParams(r)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := h.invitations.ListByTenant(r.Context(), tenantID, limit, (page-1)*limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if items == nil {
		items = []models.Invitation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
