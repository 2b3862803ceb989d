package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/getmockd/portmock/pkg/ratelimit"
)

// registerRoutes sets up all API routes.
func (a *API) registerRoutes(r *mux.Router) {
	r.Use(a.recoverMiddleware, ratelimit.Middleware(a.limiter), a.logMiddleware)
	r.NotFoundHandler = http.HandlerFunc(a.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(a.handleMethodNotAllowed)

	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", a.engine.Metrics().Handler()).Methods(http.MethodGet)

	// Listeners
	r.HandleFunc("/listeners", a.handleListListeners).Methods(http.MethodGet)
	r.HandleFunc("/listeners", a.handleCreateListener).Methods(http.MethodPost)
	r.HandleFunc("/listeners/{port:[0-9]+}", a.handleGetListener).Methods(http.MethodGet)
	r.HandleFunc("/listeners/{port:[0-9]+}", a.handleDeleteListener).Methods(http.MethodDelete)

	// Mocks and chunks
	r.HandleFunc("/listeners/{port:[0-9]+}/mocks", a.handleAddMock).Methods(http.MethodPost)
	r.HandleFunc("/listeners/{port:[0-9]+}/mocks", a.handleRemoveMock).Methods(http.MethodDelete)
	r.HandleFunc("/listeners/{port:[0-9]+}/chunks", a.handleSendChunk).Methods(http.MethodPost)

	// Request logging. /requests/ws must be registered before /requests/{id}.
	r.HandleFunc("/requests", a.handleListRequests).Methods(http.MethodGet)
	r.HandleFunc("/requests", a.handleClearRequests).Methods(http.MethodDelete)
	r.HandleFunc("/requests/ws", a.handleRequestFeed).Methods(http.MethodGet)
	r.HandleFunc("/requests/{id}", a.handleGetRequest).Methods(http.MethodGet)
}
