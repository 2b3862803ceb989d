package listener

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/getmockd/portmock/pkg/forward"
	"github.com/getmockd/portmock/pkg/logging"
	"github.com/getmockd/portmock/pkg/metrics"
	"github.com/getmockd/portmock/pkg/mock"
	"github.com/getmockd/portmock/pkg/requestlog"
	"github.com/getmockd/portmock/pkg/stream"
)

// Listener owns a bound socket and the mock entries served on it.
type Listener struct {
	port               int
	host               string
	log                *slog.Logger
	sink               requestlog.Sink
	metrics            *metrics.Metrics
	streamWriteTimeout time.Duration
	transport          http.RoundTripper

	mu        sync.RWMutex
	router    *mux.Router
	entries   map[string]map[string]*Entry
	wired     map[mock.Key]bool
	destroyed bool

	server      *http.Server
	destroyOnce sync.Once
	destroyErr  error
}

// New binds port and starts serving immediately. Port 0 picks a free port;
// Port reports the bound one.
func New(port int, opts ...Option) (*Listener, error) {
	l := &Listener{
		log:                logging.Nop(),
		sink:               requestlog.Nop{},
		streamWriteTimeout: DefaultStreamWriteTimeout,
		router:             mux.NewRouter(),
		entries:            make(map[string]map[string]*Entry),
		wired:              make(map[mock.Key]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.transport == nil {
		l.transport = forward.NewTransport(5 * time.Second)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(l.host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		l.port = addr.Port
	} else {
		l.port = port
	}
	l.log = l.log.With("port", l.port)

	l.server = &http.Server{
		Handler:           l.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(l.log.Handler(), slog.LevelDebug),
	}

	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error("listener stopped", "error", err)
		}
	}()

	l.log.Info("listener started", "addr", ln.Addr().String())
	return l, nil
}

// Port returns the bound port.
func (l *Listener) Port() int {
	return l.port
}

// Handler returns the listener's request pipeline: request logging, then
// routing.
func (l *Listener) Handler() http.Handler {
	return requestlog.Middleware(l.port, l.sink)(http.HandlerFunc(l.route))
}

// Add registers or replaces the entry for (opts.URI, opts.Method). The route
// is wired into the router the first time the pair is seen. Replacing an
// entry ends its attached streaming clients and starts with an empty chunk
// buffer.
func (l *Listener) Add(opts mock.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := mux.NewRouter().NewRoute().Path(opts.URI).GetError(); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidRoute, opts.URI, err)
	}

	key := opts.Key()
	b := stream.NewBroadcaster()
	h, err := l.resolve(opts, b)
	if err != nil {
		return err
	}
	entry := &Entry{options: opts, kind: opts.Kind(), handler: h, broadcaster: b}

	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return ErrDestroyed
	}
	if !l.wired[key] {
		l.router.Handle(key.URI, l.trampoline(key)).Methods(key.Method)
		l.wired[key] = true
	}
	byMethod, ok := l.entries[key.URI]
	if !ok {
		byMethod = make(map[string]*Entry)
		l.entries[key.URI] = byMethod
	}
	prev := byMethod[key.Method]
	byMethod[key.Method] = entry
	l.mu.Unlock()

	previousKind := ""
	if prev != nil {
		prev.broadcaster.Close()
		previousKind = string(prev.kind)
	}
	l.metrics.MockAdded(l.port, string(entry.kind), previousKind)
	return nil
}

// Get returns the current entry for (uri, method).
func (l *Listener) Get(uri, method string) (*Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[uri][strings.ToUpper(method)]
	return e, ok
}

// Remove drops the entry for (uri, method) and ends its streaming clients.
// The route stays wired and answers 404 until the pair is added again.
func (l *Listener) Remove(uri, method string) bool {
	method = strings.ToUpper(method)

	l.mu.Lock()
	e, ok := l.entries[uri][method]
	if ok {
		delete(l.entries[uri], method)
		if len(l.entries[uri]) == 0 {
			delete(l.entries, uri)
		}
	}
	l.mu.Unlock()

	if !ok {
		return false
	}
	e.broadcaster.Close()
	l.metrics.MockRemoved(l.port, string(e.kind))
	l.log.Info("mock removed", "route", l.describe(method, l.port, uri))
	return true
}

// SendChunk publishes chunk to the GET entry for uri: it is appended to the
// replay buffer and written to every attached client. It fails with
// ErrRouteNotFound, without side effects, when no GET entry exists.
func (l *Listener) SendChunk(uri string, chunk []byte) error {
	for {
		l.mu.RLock()
		destroyed := l.destroyed
		e, ok := l.entries[uri][http.MethodGet]
		l.mu.RUnlock()

		if destroyed {
			return ErrDestroyed
		}
		if !ok {
			return fmt.Errorf("%w: %d%s", ErrRouteNotFound, l.port, uri)
		}

		delivered, err := e.broadcaster.Publish(chunk)
		if errors.Is(err, stream.ErrClosed) {
			// Replaced or removed since the lookup.
			continue
		}
		if err != nil {
			return err
		}

		l.metrics.ChunkPublished(l.port, uri, delivered)
		l.log.Info("chunk sent",
			"route", l.describe(http.MethodGet, l.port, uri),
			"clients", delivered,
			"bytes", len(chunk),
		)
		return nil
	}
}

// Destroy closes the socket and every open connection, including attached
// streaming clients, and releases all entries. It is safe to call twice.
func (l *Listener) Destroy() error {
	l.destroyOnce.Do(func() {
		l.mu.Lock()
		l.destroyed = true
		entries := l.entries
		l.entries = make(map[string]map[string]*Entry)
		l.mu.Unlock()

		for _, byMethod := range entries {
			for _, e := range byMethod {
				e.broadcaster.Close()
			}
		}

		l.destroyErr = l.server.Close()
		if c, ok := l.transport.(interface{ CloseIdleConnections() }); ok {
			c.CloseIdleConnections()
		}
		l.metrics.ListenerClosed(l.port)
		l.log.Info("listener destroyed")
	})
	return l.destroyErr
}

// Snapshot returns a debug view of every entry.
func (l *Listener) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(Snapshot, len(l.entries))
	for uri, byMethod := range l.entries {
		views := make(map[string]EntrySnapshot, len(byMethod))
		for method, e := range byMethod {
			views[method] = e.snapshot()
		}
		out[uri] = views
	}
	return out
}

// String renders Snapshot as JSON.
func (l *Listener) String() string {
	data, err := json.Marshal(l.Snapshot())
	if err != nil {
		return fmt.Sprintf("listener %d: %v", l.port, err)
	}
	return string(data)
}

// route dispatches through the router. Matching happens under the read lock
// because Add mutates the router; the matched handler runs outside it since
// streaming handlers never return on their own.
func (l *Listener) route(w http.ResponseWriter, r *http.Request) {
	var match mux.RouteMatch

	l.mu.RLock()
	matched := l.router.Match(r, &match)
	l.mu.RUnlock()

	if !matched || match.MatchErr != nil {
		if errors.Is(match.MatchErr, mux.ErrMethodMismatch) {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		http.NotFound(w, r)
		return
	}

	match.Handler.ServeHTTP(w, mux.SetURLVars(r, match.Vars))
}

// trampoline is the stable handler wired for key. It resolves the current
// entry on every request.
func (l *Listener) trampoline(key mock.Key) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e, ok := l.Get(key.URI, key.Method)
		if !ok {
			http.NotFound(w, r)
			return
		}
		e.handler.ServeHTTP(w, r)
	})
}
