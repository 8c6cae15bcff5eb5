package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/cart"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/catalog"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/checkout"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/config"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/events"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/payment"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/ratelimit"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	stripeClient := &client.API{}
	stripeClient.Init(cfg.StripeSecretKey, nil)

	catalogProvider := catalog.NewCachedProvider(
		catalog.NewStripeProvider(stripeClient, logger), cfg.CatalogCacheTTL)
	paymentProvider := payment.NewStripeProvider(stripeClient, logger)

	var persister cart.Persister
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		persister = cart.NewRedisPersister(redisClient)
		logger.Info("cart persistence backed by redis", zap.String("addr", cfg.RedisAddr))
	} else {
		persister = cart.NewMemoryPersister()
		logger.Info("cart persistence in process memory")
	}
	carts := cart.NewManager(persister, logger)
	defer carts.Close()

	limiter := ratelimit.New(map[string]ratelimit.Rule{
		server.RouteCheckout: {Max: cfg.CheckoutRateMax, Window: cfg.CheckoutRateWindow},
		server.RouteWebhook:  {Max: cfg.WebhookRateMax, Window: cfg.WebhookRateWindow},
	})
	defer limiter.Close()

	eventLog := events.NewLog()

	checkoutService := checkout.NewService(catalogProvider, paymentProvider, cfg.BaseURL, logger)

	router := server.NewRouter(server.Deps{
		Logger:         logger,
		Limiter:        limiter,
		Products:       server.NewProductHandler(catalogProvider, logger),
		Cart:           server.NewCartHandler(carts, catalogProvider, logger),
		Checkout:       server.NewCheckoutHandler(checkoutService, paymentProvider, logger),
		Webhook:        server.NewWebhookHandler(cfg.StripeWebhookSecret, eventLog, carts, logger),
		Events:         server.NewEventsHandler(eventLog),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
