package engine

import (
	"log/slog"
	"time"

	"github.com/getmockd/portmock/pkg/logging"
	"github.com/getmockd/portmock/pkg/metrics"
	"github.com/getmockd/portmock/pkg/requestlog"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger shared by all listeners.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = logging.OrNop(log)
	}
}

// WithRequestStore sets the request history store.
func WithRequestStore(s *requestlog.MemoryStore) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithMetrics enables Prometheus instrumentation on every listener.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithHost sets the default bind address for listeners.
func WithHost(host string) Option {
	return func(e *Engine) {
		e.host = host
	}
}

// WithStreamWriteTimeout sets the per-write deadline for streaming clients.
func WithStreamWriteTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.streamWriteTimeout = d
	}
}
