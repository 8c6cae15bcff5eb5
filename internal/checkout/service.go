package checkout

import (
	"context"

	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/catalog"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/payment"
)

// Service validates a proposed cart snapshot against the live catalog and
// creates a provider-hosted checkout session for it. Rejections carry a
// *Error with a stable machine-readable code.
type Service struct {
	catalog  catalog.Provider
	payments payment.Provider
	baseURL  string
	logger   *zap.Logger
}

// NewService wires the checkout flow. baseURL is the redirect fallback used
// when a request carries no Origin header.
func NewService(catalogProvider catalog.Provider, payments payment.Provider, baseURL string, logger *zap.Logger) *Service {
	return &Service{
		catalog:  catalogProvider,
		payments: payments,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// CreateSession runs the full checkout pipeline: schema validation, catalog
// cross-check, duplicate merge, session creation. origin comes from the
// request's Origin header and may be empty; cartID is attached as metadata so
// the webhook can clear the cart after payment.
func (s *Service) CreateSession(ctx context.Context, req Request, origin, cartID string) (string, error) {
	if issues := req.Validate(); len(issues) > 0 {
		return "", errInvalidPayload(issues)
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.logger.Error("catalog fetch failed", zap.Error(err))
		return "", errCheckoutFailed()
	}

	known := make(map[string]bool, len(products))
	for _, product := range products {
		known[product.PriceID] = true
	}

	// whole request is rejected on the first unknown price, no partial
	// acceptance
	for _, item := range req.Items {
		if !known[item.PriceID] {
			s.logger.Info("checkout rejected, unknown price",
				zap.String("price_id", item.PriceID))
			return "", errItemUnavailable()
		}
	}

	lineItems := mergeLineItems(req.Items)
	if len(lineItems) == 0 {
		return "", errCartEmpty()
	}

	base := origin
	if base == "" {
		base = s.baseURL
	}

	params := payment.SessionParams{
		LineItems:     lineItems,
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    base + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     base + "/cart",
	}
	if cartID != "" {
		params.Metadata = map[string]string{"cart_id": cartID}
	}

	session, err := s.payments.CreateSession(ctx, params)
	if err != nil {
		s.logger.Error("session creation failed", zap.Error(err))
		return "", errCheckoutFailed()
	}
	return session.ID, nil
}

// mergeLineItems collapses duplicate price ids, summing quantities capped at
// the per-item maximum. First-seen order is preserved; a zero quantity means
// the client omitted it and defaults to 1.
func mergeLineItems(items []RequestItem) []payment.LineItem {
	merged := make([]payment.LineItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, item := range items {
		quantity := int64(item.Quantity)
		if quantity == 0 {
			quantity = 1
		}
		if at, ok := index[item.PriceID]; ok {
			merged[at].Quantity += quantity
			if merged[at].Quantity > maxItemQuantity {
				merged[at].Quantity = maxItemQuantity
			}
			continue
		}
		index[item.PriceID] = len(merged)
		merged = append(merged, payment.LineItem{PriceID: item.PriceID, Quantity: quantity})
	}
	return merged
}

// maxItemQuantity mirrors the cart's per-item quantity cap.
const maxItemQuantity = 10
