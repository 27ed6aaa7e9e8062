package middleware

import (
	"net"
	"net/http"

	"catalog-rest-api/internal/ratelimit"
	"catalog-rest-api/pkg/apierror"
)

// NewRateLimitMiddleware creates an admission-control middleware for the
// given limiter. Requests are partitioned by the caller's network identity;
// queued requests wait for their window, rejected ones get 429 with no work
// attempted.
func NewRateLimitMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := limiter.Admit(r.Context(), clientIP(r)); err != nil {
				if err == ratelimit.ErrLimitExceeded {
					writeError(w, apierror.TooManyRequests(""))
					return
				}
				// Context cancelled while queued; the client is gone.
				writeError(w, apierror.TooManyRequests("request cancelled while queued"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's network identity used as the rate-limit
// partition key.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
