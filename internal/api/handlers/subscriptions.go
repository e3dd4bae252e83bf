package handlers

import (
	"net/http"

	"github.com/stacklane/saasbase/internal/subscription"
)

type SubscriptionHandler struct {
	subscriptions *subscription.Service
}

func NewSubscriptionHandler(subscriptions *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (h *SubscriptionHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": h.subscriptions.Plans()})
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	sub, err := h.subscriptions.GetByTenant(r.Context(), tenantID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) ChangeTier(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	var req subscription.ChangeTierRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	sub, err := h.subscriptions.ChangeTier(r.Context(), tenantID, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}

	sub, err := h.subscriptions.Cancel(r.Context(), tenantID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
