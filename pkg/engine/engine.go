package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/getmockd/portmock/pkg/config"
	"github.com/getmockd/portmock/pkg/listener"
	"github.com/getmockd/portmock/pkg/logging"
	"github.com/getmockd/portmock/pkg/metrics"
	"github.com/getmockd/portmock/pkg/requestlog"
)

var (
	// ErrListenerExists is returned by Listen for a port already served.
	ErrListenerExists = errors.New("listener already exists")

	// ErrListenerNotFound is returned for ports the engine does not serve.
	ErrListenerNotFound = errors.New("listener not found")

	// ErrShutdown is returned after Shutdown.
	ErrShutdown = errors.New("engine shut down")

	// ErrInvalidMock wraps configuration errors of a mock, including script
	// compile errors.
	ErrInvalidMock = errors.New("invalid mock")
)

// Engine owns listeners by port.
type Engine struct {
	log                *slog.Logger
	store              *requestlog.MemoryStore
	metrics            *metrics.Metrics
	host               string
	streamWriteTimeout time.Duration
	startTime          time.Time

	mu        sync.RWMutex
	listeners map[int]*listener.Listener
	closed    bool
}

// New creates an engine with no listeners.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:                logging.Nop(),
		streamWriteTimeout: listener.DefaultStreamWriteTimeout,
		startTime:          time.Now(),
		listeners:          make(map[int]*listener.Listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = requestlog.NewMemoryStore(requestlog.DefaultMaxEntries)
	}
	return e
}

// Store returns the shared request history.
func (e *Engine) Store() *requestlog.MemoryStore {
	return e.store
}

// Metrics returns the shared metrics, nil when disabled.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Uptime returns the time since New.
func (e *Engine) Uptime() time.Duration {
	return time.Since(e.startTime)
}

// Listen starts a listener on port using the engine's default host. Port 0
// picks a free port.
func (e *Engine) Listen(port int) (*listener.Listener, error) {
	return e.listen(e.host, port)
}

func (e *Engine) listen(host string, port int) (*listener.Listener, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrShutdown
	}
	if _, ok := e.listeners[port]; ok && port != 0 {
		return nil, fmt.Errorf("%w: %d", ErrListenerExists, port)
	}

	l, err := listener.New(port,
		listener.WithHost(host),
		listener.WithLogger(e.log),
		listener.WithRequestSink(requestlog.Multi(e.store, requestlog.SlogSink{Log: e.log})),
		listener.WithMetrics(e.metrics),
		listener.WithStreamWriteTimeout(e.streamWriteTimeout),
	)
	if err != nil {
		return nil, err
	}
	e.listeners[l.Port()] = l
	return l, nil
}

// Listener returns the listener bound to port.
func (e *Engine) Listener(port int) (*listener.Listener, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.listeners[port]
	return l, ok
}

// Listeners returns all listeners ordered by port.
func (e *Engine) Listeners() []*listener.Listener {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*listener.Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b *listener.Listener) int {
		return a.Port() - b.Port()
	})
	return out
}

// Close destroys the listener on port and forgets it.
func (e *Engine) Close(port int) error {
	e.mu.Lock()
	l, ok := e.listeners[port]
	delete(e.listeners, port)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrListenerNotFound, port)
	}
	return l.Destroy()
}

// AddMock registers cfg on the listener bound to port and publishes its
// pre-seeded chunks.
func (e *Engine) AddMock(port int, cfg config.MockConfig) error {
	l, ok := e.Listener(port)
	if !ok {
		return fmt.Errorf("%w: %d", ErrListenerNotFound, port)
	}
	return addMock(l, cfg)
}

func addMock(l *listener.Listener, cfg config.MockConfig) error {
	opts, err := cfg.ToOptions()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMock, err)
	}
	if err := l.Add(opts); err != nil {
		return err
	}
	for _, chunk := range cfg.Chunks {
		if err := l.SendChunk(opts.URI, []byte(chunk)); err != nil {
			return err
		}
	}
	return nil
}

// Apply starts or reuses a listener for every entry of f and registers its
// mocks. It keeps going after a failure and returns all errors joined.
func (e *Engine) Apply(f *config.File) error {
	var errs []error
	for _, lc := range f.Listeners {
		l, ok := e.Listener(lc.Port)
		if !ok || lc.Port == 0 {
			host := lc.Host
			if host == "" {
				host = e.host
			}
			var err error
			l, err = e.listen(host, lc.Port)
			if err != nil {
				errs = append(errs, err)
				continue
			}
		}
		for _, mc := range lc.Mocks {
			if err := addMock(l, mc); err != nil {
				errs = append(errs, fmt.Errorf("port %d %s %s: %w", l.Port(), mc.Method, mc.URI, err))
			}
		}
		e.log.Info("listener configured", "port", l.Port(), "mocks", len(lc.Mocks))
	}
	return errors.Join(errs...)
}

// Shutdown destroys every listener. Further Listen calls fail with
// ErrShutdown. Listener teardown does not wait for handlers, so ctx is only
// checked once every listener was closed.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	listeners := e.listeners
	e.listeners = make(map[int]*listener.Listener)
	e.mu.Unlock()

	var errs []error
	for port, l := range listeners {
		if err := l.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("port %d: %w", port, err))
		}
	}
	if len(errs) == 0 {
		return ctx.Err()
	}
	return errors.Join(errs...)
}
