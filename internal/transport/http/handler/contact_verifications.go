package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-api/internal/application/verification"
	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/pkg/validate"
	"github.com/go-notify-api/internal/transport/http/middleware"
)

// ContactVerificationHandler handles email verification of contact records.
type ContactVerificationHandler struct {
	svc verification.Service
}

func NewContactVerificationHandler(svc verification.Service) *ContactVerificationHandler {
	return &ContactVerificationHandler{svc: svc}
}

// authorize lets callers act on their own contact record and admins on any.
// It writes the error response and returns false when access is denied.
func authorize(w http.ResponseWriter, r *http.Request, contactID string) bool {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if claims.UserID != contactID && claims.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func (h *ContactVerificationHandler) Request(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "id")
	if !authorize(w, r, contactID) {
		return
	}
	var req domain.VerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	if err := h.svc.RequestVerification(r.Context(), contactID, req.Email, locale); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "verification email scheduled"})
}

func (h *ContactVerificationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "id")
	if !authorize(w, r, contactID) {
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	if err := h.svc.ResendVerification(r.Context(), contactID, locale); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "verification email scheduled"})
}

func (h *ContactVerificationHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "id")
	if !authorize(w, r, contactID) {
		return
	}
	t, err := h.svc.GetPendingVerification(r.Context(), contactID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationEnvelope(t))
}

// Confirm is the target of the emailed link, so it carries no bearer token.
func (h *ContactVerificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	err := h.svc.ConfirmVerification(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tokenId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email address verified"})
}
