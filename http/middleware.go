package http

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"mediagate/credentials"
	"mediagate/monitoring"
	"mediagate/ratelimit"
)

// IdentityFunc maps a request to a stable client identity for rate limiting.
type IdentityFunc func(r *http.Request) string

// ClientIdentity returns the standard identity function: the peer address,
// or the first X-Forwarded-For hop when the header is trusted.
func ClientIdentity(trustForwardedFor bool) IdentityFunc {
	return func(r *http.Request) string {
		if trustForwardedFor {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				// First hop is the original client.
				if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// RateLimitMiddleware guards a route with a ratelimit.Store. Rejections are
// 429 with a Retry-After header rounded up to whole seconds. A failing
// shared store admits the request: availability of the protected endpoint
// wins over strictness, and the failure is logged for operators.
func RateLimitMiddleware(store ratelimit.Store, route string, identity IdentityFunc, metrics *monitoring.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dec, err := store.Check(r.Context(), identity(r), route, time.Now())
			if err != nil {
				slog.Warn("rate limit store unavailable, admitting request", "route", route, "err", err)
			}

			if !dec.Allowed {
				if metrics != nil {
					metrics.RateLimitRejectionsTotal.WithLabelValues(route).Inc()
				}
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(dec.RetryAfter)))
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ThrottleMiddleware applies the process-wide throttle before any per-route
// logic runs.
func ThrottleMiddleware(throttle *ratelimit.Throttle, metrics *monitoring.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !throttle.Allow() {
				if metrics != nil {
					metrics.RateLimitRejectionsTotal.WithLabelValues("throttle").Inc()
				}
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "throttled", "Server is busy")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionMiddleware requires a valid bearer session token.
func SessionMiddleware(sessions *credentials.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			if _, err := sessions.Validate(token, time.Now()); err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired session")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MetricsMiddleware counts requests by route and status code. A nil Metrics
// disables it.
func MetricsMiddleware(metrics *monitoring.Metrics, route string) func(http.Handler) http.Handler {
	if metrics == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		})
	}
}

// retrySeconds renders a retry hint as whole seconds, rounding up so the
// client never retries early.
func retrySeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
