package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedProvider wraps another Provider with a short-lived in-process cache.
// Concurrent cache misses collapse into a single upstream fetch.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration
	sfg   singleflight.Group
	now   func() time.Time

	mu        sync.RWMutex
	products  []Product
	fetchedAt time.Time
}

func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *CachedProvider) ListProducts(ctx context.Context) ([]Product, error) {
	c.mu.RLock()
	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		cached := copyProducts(c.products)
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.sfg.Do("list", func() (interface{}, error) {
		products, err := c.inner.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.products = products
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return copyProducts(v.([]Product)), nil
}

func (c *CachedProvider) GetProduct(ctx context.Context, id string) (*Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, ErrProductNotFound
}

func copyProducts(products []Product) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}
