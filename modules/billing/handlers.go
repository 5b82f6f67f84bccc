package billing

import (
	"net/http"

	"github.com/innerbloom/billing/pkg/billing"
	"github.com/innerbloom/billing/pkg/identity"
)

func (h *handlers) listPlans(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, h.svc.ListBillingPlans())
}

func (h *handlers) getSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.GetUserBillingSubscription(r.Context(), identity.UserID(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var req billing.SubscribeRequest
	if err := decodeJSON(w, r, &req, h.maxBytes, false); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	sub, err := h.svc.SubscribeUser(r.Context(), identity.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (h *handlers) changePlan(w http.ResponseWriter, r *http.Request) {
	var req billing.ChangePlanRequest
	if err := decodeJSON(w, r, &req, h.maxBytes, false); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	sub, err := h.svc.ChangeUserPlan(r.Context(), identity.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	var req billing.CancelRequest
	if err := decodeJSON(w, r, &req, h.maxBytes, true); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	sub, err := h.svc.CancelUserSubscription(r.Context(), identity.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (h *handlers) reactivate(w http.ResponseWriter, r *http.Request) {
	var req billing.ReactivateRequest
	if err := decodeJSON(w, r, &req, h.maxBytes, true); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	sub, err := h.svc.ReactivateUserSubscription(r.Context(), identity.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	var req billing.CheckoutRequest
	if err := decodeJSON(w, r, &req, h.maxBytes, false); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if req.Email == "" {
		if u, ok := identity.UserFromContext(r.Context()); ok {
			req.Email = u.Email
		}
	}
	session, err := h.svc.CreateCheckout(r.Context(), identity.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusCreated, session)
}

func (h *handlers) portal(w http.ResponseWriter, r *http.Request) {
	var req billing.PortalRequest
	if err := decodeJSON(w, r, &req, h.maxBytes, true); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	session, err := h.svc.CreatePortal(r.Context(), identity.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusCreated, session)
}

func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := readRaw(w, r, h.maxBytes)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	var sig string
	for _, name := range signatureHeaders {
		if sig = r.Header.Get(name); sig != "" {
			break
		}
	}

	result, err := h.svc.HandleWebhook(r.Context(), payload, sig)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, http.StatusOK, result)
}
