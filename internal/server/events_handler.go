package server

import (
	"net/http"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/events"
)

// EventsHandler surfaces the in-memory payment event log. Entries are
// process-local and reset on restart.
type EventsHandler struct {
	events *events.Log
}

func NewEventsHandler(eventLog *events.Log) *EventsHandler {
	return &EventsHandler{events: eventLog}
}

type EventsResponseDTO struct {
	Events []events.Entry `json:"events"`
}

// GET /api/payments/events?sessionId=...&paymentIntentId=...
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	var entries []events.Entry
	switch {
	case r.URL.Query().Get("sessionId") != "":
		entries = h.events.BySession(r.URL.Query().Get("sessionId"))
	case r.URL.Query().Get("paymentIntentId") != "":
		entries = h.events.ByIntent(r.URL.Query().Get("paymentIntentId"))
	default:
		entries = h.events.Recent()
	}

	if entries == nil {
		entries = []events.Entry{}
	}
	respondJSON(w, http.StatusOK, EventsResponseDTO{Events: entries})
}
