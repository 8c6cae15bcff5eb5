package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/cart"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/events"
)

// maxWebhookBody bounds the webhook payload; Stripe events are far smaller.
const maxWebhookBody = 64 << 10

// WebhookHandler verifies Stripe webhook signatures, records payment
// outcomes in the event log, and clears the originating cart once a
// checkout session completes.
type WebhookHandler struct {
	secret string
	events *events.Log
	carts  *cart.Manager
	logger *zap.Logger
}

func NewWebhookHandler(secret string, eventLog *events.Log, carts *cart.Manager, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret: secret,
		events: eventLog,
		carts:  carts,
		logger: logger,
	}
}

// POST /api/webhook
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload,
		r.Header.Get("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		respondError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		h.handleSessionCompleted(r, event)
	case stripe.EventTypePaymentIntentSucceeded:
		h.handleIntentOutcome(event, events.TypeSucceeded)
	case stripe.EventTypePaymentIntentPaymentFailed:
		h.handleIntentOutcome(event, events.TypeFailed)
	default:
		h.logger.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) handleSessionCompleted(r *http.Request, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("decode checkout session failed",
			zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	entry := events.Entry{
		ID:            event.ID,
		Type:          events.TypeSucceeded,
		CreatedAt:     time.Unix(event.Created, 0),
		SessionID:     session.ID,
		Amount:        session.AmountTotal,
		Currency:      strings.ToUpper(string(session.Currency)),
		CustomerEmail: session.CustomerEmail,
	}
	if session.PaymentIntent != nil {
		entry.PaymentIntentID = session.PaymentIntent.ID
	}
	if entry.CustomerEmail == "" && session.CustomerDetails != nil {
		entry.CustomerEmail = session.CustomerDetails.Email
	}
	h.events.Record(entry)

	// confirmed payment destroys the cart it came from
	if cartID := session.Metadata["cart_id"]; cartID != "" {
		if err := h.carts.Clear(r.Context(), cartID); err != nil {
			h.logger.Error("clear cart after payment failed",
				zap.String("cart_id", cartID), zap.Error(err))
		}
	}

	h.logger.Info("checkout session completed",
		zap.String("session_id", session.ID),
		zap.Int64("amount_total", session.AmountTotal))
}

func (h *WebhookHandler) handleIntentOutcome(event stripe.Event, outcome events.Type) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.logger.Error("decode payment intent failed",
			zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	entry := events.Entry{
		ID:              event.ID,
		Type:            outcome,
		CreatedAt:       time.Unix(event.Created, 0),
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        strings.ToUpper(string(intent.Currency)),
		CustomerEmail:   intent.ReceiptEmail,
	}
	if intent.LastPaymentError != nil {
		entry.ErrorMessage = intent.LastPaymentError.Msg
	}
	h.events.Record(entry)

	h.logger.Info("payment intent outcome recorded",
		zap.String("payment_intent_id", intent.ID),
		zap.String("outcome", string(outcome)))
}
