package middleware

import (
	"net/http"
	"strconv"

	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/ratelimit"
)

// RateLimit returns middleware that throttles requests per authenticated
// key (falling back to remote address for unauthenticated paths).
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if identity := GetIdentity(r.Context()); identity != nil {
				key = identity.ID
			}

			allowed, count, err := limiter.Allow(r.Context(), key)
			if err != nil {
				response.WriteError(w, http.StatusInternalServerError, "rate limit check failed")
				return
			}
			if !allowed {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
				w.Header().Set("X-RateLimit-Observed", strconv.FormatInt(count, 10))
				response.WriteError(w, http.StatusTooManyRequests, "scan rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
