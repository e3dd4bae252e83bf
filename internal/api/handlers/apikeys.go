package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/stacklane/saasbase/internal/apikey"
	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/models"
)

type APIKeyHandler struct {
	keys *apikey.Service
}

func NewAPIKeyHandler(keys *apikey.Service) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

// Create returns the plaintext secret exactly once, alongside the stored
// record and the one-time warning.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req apikey.CreateRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	created, err := h.keys.Create(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(r.URL.Query().Get("tenant_id"))
	if err != nil {
		writeErr(w, apperr.BadRequest("invalid tenant_id"))
		return
	}

	keys, err := h.keys.ListByTenant(r.Context(), tenantID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if keys == nil {
		keys = []models.APIKey{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"api_keys": keys})
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.keys.Revoke(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "API key revoked"})
}
