package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"
)

// StripeProvider reads products and their default prices from Stripe.
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

func NewStripeProvider(api *client.API, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{api: api, logger: logger}
}

func (p *StripeProvider) ListProducts(ctx context.Context) ([]Product, error) {
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.AddExpand("data.default_price")

	var products []Product
	iter := p.api.Products.List(params)
	for iter.Next() {
		product, ok := fromStripeProduct(iter.Product())
		if !ok {
			continue
		}
		products = append(products, product)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (p *StripeProvider) GetProduct(ctx context.Context, id string) (*Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	params.AddExpand("default_price")

	stripeProduct, err := p.api.Products.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	product, ok := fromStripeProduct(stripeProduct)
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// fromStripeProduct maps a Stripe product to the catalog shape. Products
// without an active default price are not purchasable and are skipped.
func fromStripeProduct(sp *stripe.Product) (Product, bool) {
	if sp == nil || !sp.Active || sp.DefaultPrice == nil || !sp.DefaultPrice.Active {
		return Product{}, false
	}
	if sp.DefaultPrice.UnitAmount < 0 {
		return Product{}, false
	}

	image := ""
	if len(sp.Images) > 0 {
		image = sp.Images[0]
	}

	return Product{
		ID:          sp.ID,
		PriceID:     sp.DefaultPrice.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Image:       image,
		UnitAmount:  sp.DefaultPrice.UnitAmount,
		Currency:    strings.ToUpper(string(sp.DefaultPrice.Currency)),
	}, true
}
