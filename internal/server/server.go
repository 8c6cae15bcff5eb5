package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/ratelimit"
)

// Deps collects everything the router needs.
type Deps struct {
	Logger   *zap.Logger
	Limiter  *ratelimit.Limiter
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler
	Events   *EventsHandler

	RequestTimeout time.Duration
}

// NewRouter assembles the storefront HTTP surface.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", deps.Products.List)

		r.Route("/cart", func(r chi.Router) {
			r.Use(CartCookie)
			r.Get("/", deps.Cart.GetCart)
			r.Delete("/", deps.Cart.ClearCart)
			r.Post("/items", deps.Cart.AddItem)
			r.Put("/items/{product_id}", deps.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", deps.Cart.RemoveItem)
		})

		r.With(CartCookie, RateLimit(deps.Limiter, RouteCheckout)).
			Post("/checkout", deps.Checkout.Create)
		r.Get("/checkout/session/{id}", deps.Checkout.Session)

		r.With(RateLimit(deps.Limiter, RouteWebhook)).
			Post("/webhook", deps.Webhook.Handle)

		r.Get("/payments/events", deps.Events.List)
	})

	return r
}
