package handlers

import (
	"net/http"

	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/tenant"
)

type TenantHandler struct {
	tenants *tenant.Service
}

func NewTenantHandler(tenants *tenant.Service) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}

	var req tenant.CreateRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	t, err := h.tenants.Create(r.Context(), req, u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}

	tenants, err := h.tenants.ListByUser(r.Context(), u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if tenants == nil {
		tenants = []tenant.UserTenant{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tenants": tenants})
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	t, err := h.tenants.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TenantHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	t, err := h.tenants.GetBySlug(r.Context(), r.URL.Query().Get("slug"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req tenant.UpdateRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	t, err := h.tenants.Update(r.Context(), id, req, u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.tenants.Delete(r.Context(), id, u.ID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "tenant deleted"})
}

func (h *TenantHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	members, err := h.tenants.ListMembers(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if members == nil {
		members = []models.Membership{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *TenantHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	var req struct {
		UserID string      `json:"user_id"`
		Role   models.Role `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	m, err := h.tenants.AddMember(r.Context(), id, userID, role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *TenantHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	userID, err := uuidParam(r, "userID")
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.tenants.RemoveMember(r.Context(), id, userID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}
