package payment

import "context"

// LineItem is a (price reference, quantity) pair destined for a checkout
// session.
type LineItem struct {
	PriceID  string
	Quantity int64
}

// SessionParams describes a checkout session to create. CustomerEmail may be
// empty; Metadata is attached verbatim and round-trips through webhooks.
type SessionParams struct {
	LineItems     []LineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Session is the provider-hosted checkout transaction.
type Session struct {
	ID              string `json:"id"`
	URL             string `json:"url,omitempty"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"paymentStatus"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	CustomerEmail   string `json:"customerEmail,omitempty"`
	AmountTotal     int64  `json:"amountTotal"`
	Currency        string `json:"currency"`
}

// Provider creates and retrieves hosted checkout sessions.
type Provider interface {
	CreateSession(ctx context.Context, params SessionParams) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}
