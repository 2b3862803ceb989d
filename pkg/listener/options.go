package listener

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/portmock/pkg/logging"
	"github.com/getmockd/portmock/pkg/metrics"
	"github.com/getmockd/portmock/pkg/requestlog"
)

// DefaultStreamWriteTimeout bounds a single chunk write to a streaming client.
const DefaultStreamWriteTimeout = 10 * time.Second

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the operational logger. The listener adds a port attribute.
func WithLogger(log *slog.Logger) Option {
	return func(l *Listener) {
		l.log = logging.OrNop(log)
	}
}

// WithRequestSink sets the request log collaborator.
func WithRequestSink(sink requestlog.Sink) Option {
	return func(l *Listener) {
		if sink != nil {
			l.sink = sink
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Listener) {
		l.metrics = m
	}
}

// WithStreamWriteTimeout sets the per-write deadline for streaming clients.
// Zero disables it.
func WithStreamWriteTimeout(d time.Duration) Option {
	return func(l *Listener) {
		l.streamWriteTimeout = d
	}
}

// WithHost sets the bind address. Empty binds all interfaces.
func WithHost(host string) Option {
	return func(l *Listener) {
		l.host = host
	}
}

// WithTransport sets the round tripper used by proxy entries.
func WithTransport(rt http.RoundTripper) Option {
	return func(l *Listener) {
		if rt != nil {
			l.transport = rt
		}
	}
}
