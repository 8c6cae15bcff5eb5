package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/checkout"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/payment"
)

// CheckoutHandler turns a posted cart snapshot into a hosted checkout
// session and serves session details for the success page.
type CheckoutHandler struct {
	service  *checkout.Service
	payments payment.Provider
	logger   *zap.Logger
}

func NewCheckoutHandler(service *checkout.Service, payments payment.Provider, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		payments: payments,
		logger:   logger,
	}
}

type CheckoutResponseDTO struct {
	SessionID string `json:"sessionId"`
}

// POST /api/checkout
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid checkout payload",
			Code:   checkout.CodeInvalidPayload,
			Issues: []string{"body must be valid JSON"},
		})
		return
	}

	sessionID, err := h.service.CreateSession(r.Context(), req,
		r.Header.Get("Origin"), cartIDFromContext(r.Context()))
	if err != nil {
		var checkoutErr *checkout.Error
		if errors.As(err, &checkoutErr) {
			respondJSON(w, checkoutErr.Status, ErrorResponse{
				Error:  checkoutErr.Message,
				Code:   checkoutErr.Code,
				Issues: checkoutErr.Issues,
			})
			return
		}
		h.logger.Error("checkout failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{SessionID: sessionID})
}

// GET /api/checkout/session/{id}
func (h *CheckoutHandler) Session(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "session id is required")
		return
	}

	session, err := h.payments.GetSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("get session failed", zap.String("session_id", sessionID), zap.Error(err))
		respondError(w, http.StatusBadGateway, "session_unavailable", "failed to fetch session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}
