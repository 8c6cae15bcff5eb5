package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/ratelimit"
)

// Rate-limited route names. Each has its own budget in the limiter.
const (
	RouteCheckout = "checkout"
	RouteWebhook  = "webhook"
)

// cartCookieName identifies the client's cart across requests.
const cartCookieName = "cart_id"

// userAgentKeyLen is how much of the user agent participates in the
// rate-limit client key.
const userAgentKeyLen = 64

type contextKey string

const cartIDKey contextKey = "cart_id"

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// ClientKey derives the best-effort rate-limit identity for a request:
// first available proxy header, falling back to a sentinel, plus a
// truncated user agent.
func ClientKey(r *http.Request) string {
	addr := "local"
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// first hop only
		addr = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	} else if real := r.Header.Get("X-Real-IP"); real != "" {
		addr = strings.TrimSpace(real)
	}

	agent := r.UserAgent()
	if len(agent) > userAgentKeyLen {
		agent = agent[:userAgentKeyLen]
	}
	return fmt.Sprintf("%s:%s", addr, agent)
}

// RateLimit rejects requests over the route's budget with 429 and a
// retry-after hint. Rejection is retryable, never a server fault.
func RateLimit(limiter *ratelimit.Limiter, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := limiter.Allow(route, ClientKey(r))
			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
				respondJSON(w, http.StatusTooManyRequests, ErrorResponse{
					Error:             "too many requests, slow down",
					Code:              "rate_limited",
					RetryAfterSeconds: decision.RetryAfterSeconds,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CartCookie ensures every request carries a cart id, issuing a new cookie
// when none is present, and puts the id on the request context.
func CartCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cartID string
		if cookie, err := r.Cookie(cartCookieName); err == nil && cookie.Value != "" {
			cartID = cookie.Value
		} else {
			cartID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     cartCookieName,
				Value:    cartID,
				Path:     "/",
				MaxAge:   int((30 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), cartIDKey, cartID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func cartIDFromContext(ctx context.Context) string {
	if cartID, ok := ctx.Value(cartIDKey).(string); ok {
		return cartID
	}
	return ""
}
