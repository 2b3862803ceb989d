package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/getmockd/portmock/pkg/engine"
	"github.com/getmockd/portmock/pkg/logging"
	"github.com/getmockd/portmock/pkg/ratelimit"
)

// API serves the control endpoints for an engine.
type API struct {
	engine  *engine.Engine
	log     *slog.Logger
	version string
	router  *mux.Router
	limiter *ratelimit.Limiter

	httpServer *http.Server
	listener   net.Listener
}

// New creates the API. Routes are registered immediately so Handler can be
// used without Start.
func New(e *engine.Engine, opts ...Option) *API {
	a := &API{
		engine:  e,
		log:     logging.Nop(),
		version: "dev",
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.registerRoutes(a.router)
	return a
}

// Handler returns the API router.
func (a *API) Handler() http.Handler {
	return a.router
}

// Start binds addr and serves in the background.
func (a *API) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("admin listen on %s: %w", addr, err)
	}
	a.listener = ln
	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("admin server stopped", "error", err)
		}
	}()

	a.log.Info("admin API started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (a *API) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Stop shuts the server down gracefully. Open WebSocket feeds are hijacked
// connections, so they are not waited for.
func (a *API) Stop(ctx context.Context) error {
	if a.httpServer == nil {
		return nil
	}
	return a.httpServer.Shutdown(ctx)
}
