package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"
)

// StripeProvider creates Stripe Checkout Sessions in payment mode.
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

func NewStripeProvider(api *client.API, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{api: api, logger: logger}
}

func (p *StripeProvider) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx

	for _, item := range params.LineItems {
		sessionParams.LineItems = append(sessionParams.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	for key, value := range params.Metadata {
		sessionParams.AddMetadata(key, value)
	}

	session, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	p.logger.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.Int("line_items", len(params.LineItems)))
	return fromStripeSession(session), nil
}

func (p *StripeProvider) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session %s: %w", id, err)
	}
	return fromStripeSession(session), nil
}

func fromStripeSession(s *stripe.CheckoutSession) *Session {
	session := &Session{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Currency:      strings.ToUpper(string(s.Currency)),
	}
	if s.PaymentIntent != nil {
		session.PaymentIntentID = s.PaymentIntent.ID
	}
	if session.CustomerEmail == "" && s.CustomerDetails != nil {
		session.CustomerEmail = s.CustomerDetails.Email
	}
	return session
}
