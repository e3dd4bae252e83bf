package handlers

import (
	"net/http"

	"github.com/stacklane/saasbase/internal/apperr"
	"github.com/stacklane/saasbase/internal/tenant"
	"github.com/stacklane/saasbase/internal/user"
)

type AuthHandler struct {
	users *user.Service
}

func NewAuthHandler(users *user.Service) *AuthHandler {
	return &AuthHandler{users: users}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	result, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.RefreshToken == "" {
		writeErr(w, apperr.BadRequest("refresh token is required"))
		return
	}

	tokens, err := h.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}
	if err := h.users.Logout(r.Context(), u.ID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u := tenant.UserFromContext(r.Context())
	if u == nil {
		writeErr(w, apperr.Unauthorized("not authenticated"))
		return
	}
	profile, err := h.users.GetProfile(r.Context(), u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
