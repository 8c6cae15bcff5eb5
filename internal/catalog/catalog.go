package catalog

import (
	"context"
	"errors"
)

// ErrProductNotFound is returned when a product id is unknown or inactive.
var ErrProductNotFound = errors.New("product not found")

// Product is one purchasable catalog entry with its current default price.
// UnitAmount is in minor currency units.
type Product struct {
	ID          string `json:"id"`
	PriceID     string `json:"priceId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	UnitAmount  int64  `json:"unitAmount"`
	Currency    string `json:"currency"`
}

// Provider reads the live catalog. Nothing in this codebase mutates
// catalog data.
type Provider interface {
	// ListProducts returns all active products that carry an active
	// default price.
	ListProducts(ctx context.Context) ([]Product, error)

	// GetProduct returns a single product or ErrProductNotFound.
	GetProduct(ctx context.Context, id string) (*Product, error)
}
