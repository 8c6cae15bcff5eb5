package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/cart"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/events"
)

const webhookSecret = "whsec_test"

// signPayload produces a valid Stripe-Signature header for payload.
func signPayload(payload []byte, secret string) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(t *testing.T, handler http.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewReader(payload))
	request.Header.Set("Stripe-Signature", signature)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func sessionCompletedPayload(cartID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"created": %d,
		"data": {
			"object": {
				"id": "cs_test_123",
				"object": "checkout.session",
				"amount_total": 5000,
				"currency": "usd",
				"payment_intent": "pi_123",
				"metadata": {"cart_id": %q},
				"customer_details": {"email": "buyer@example.com"}
			}
		}
	}`, time.Now().Unix(), cartID))
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	env := newRouterEnv(t, nil)

	payload := sessionCompletedPayload("")
	recorder := postWebhook(t, env.handler, payload, "t=1,v1=deadbeef")

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid_signature", decodeError(t, recorder).Code)
	assert.Empty(t, env.eventLog.Recent())
}

func TestWebhook_RecordsSessionCompleted(t *testing.T) {
	env := newRouterEnv(t, nil)

	payload := sessionCompletedPayload("")
	recorder := postWebhook(t, env.handler, payload, signPayload(payload, webhookSecret))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	entries := env.eventLog.BySession("cs_test_123")
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "evt_1", entry.ID)
	assert.Equal(t, events.TypeSucceeded, entry.Type)
	assert.Equal(t, "pi_123", entry.PaymentIntentID)
	assert.Equal(t, int64(5000), entry.Amount)
	assert.Equal(t, "USD", entry.Currency)
	assert.Equal(t, "buyer@example.com", entry.CustomerEmail)

	assert.Len(t, env.eventLog.ByIntent("pi_123"), 1)
}

func TestWebhook_ClearsCartOnCompletedSession(t *testing.T) {
	env := newRouterEnv(t, nil)

	store, err := env.carts.Get(context.Background(), "cart-paid")
	require.NoError(t, err)
	store.Add(cart.LineItem{ProductID: "prod_1", PriceID: "price_1", UnitAmount: 2500}, 2)
	require.Equal(t, 2, store.Count())

	payload := sessionCompletedPayload("cart-paid")
	recorder := postWebhook(t, env.handler, payload, signPayload(payload, webhookSecret))
	require.Equal(t, http.StatusOK, recorder.Code)

	assert.Empty(t, store.Items(), "confirmed payment destroys the cart")
}

func TestWebhook_RecordsPaymentFailure(t *testing.T) {
	env := newRouterEnv(t, nil)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"type": "payment_intent.payment_failed",
		"created": %d,
		"data": {
			"object": {
				"id": "pi_456",
				"object": "payment_intent",
				"amount": 900,
				"currency": "usd",
				"last_payment_error": {"message": "Your card was declined."}
			}
		}
	}`, time.Now().Unix()))

	recorder := postWebhook(t, env.handler, payload, signPayload(payload, webhookSecret))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	entries := env.eventLog.ByIntent("pi_456")
	require.Len(t, entries, 1)
	assert.Equal(t, events.TypeFailed, entries[0].Type)
	assert.Equal(t, "Your card was declined.", entries[0].ErrorMessage)
}

func TestWebhook_IgnoresUnhandledEventTypes(t *testing.T) {
	env := newRouterEnv(t, nil)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_3",
		"type": "customer.created",
		"created": %d,
		"data": {"object": {"id": "cus_1", "object": "customer"}}
	}`, time.Now().Unix()))

	recorder := postWebhook(t, env.handler, payload, signPayload(payload, webhookSecret))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, env.eventLog.Recent())
}

func TestWebhook_EventsEndpointServesLog(t *testing.T) {
	env := newRouterEnv(t, nil)

	payload := sessionCompletedPayload("")
	postWebhook(t, env.handler, payload, signPayload(payload, webhookSecret))

	request := httptest.NewRequest(http.MethodGet, "/api/payments/events?sessionId=cs_test_123", nil)
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "evt_1")
}
