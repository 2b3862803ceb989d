package admin

import (
	"log/slog"

	"github.com/getmockd/portmock/pkg/logging"
	"github.com/getmockd/portmock/pkg/ratelimit"
)

// Option configures an API.
type Option func(*API)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		a.log = logging.OrNop(log)
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(a *API) {
		if v != "" {
			a.version = v
		}
	}
}

// WithRateLimiter limits requests per client IP. The caller owns the limiter
// and stops it.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(a *API) {
		a.limiter = l
	}
}
