package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/getmockd/portmock/pkg/httputil"
)

// Middleware enforces l per client IP. A nil limiter passes everything.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, retryAfter := l.Allow(clientIP(r.RemoteAddr))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Burst()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			httputil.WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please slow down.")
		})
	}
}
