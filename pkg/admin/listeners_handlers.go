package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/getmockd/portmock/pkg/config"
	"github.com/getmockd/portmock/pkg/engine"
	"github.com/getmockd/portmock/pkg/httputil"
	"github.com/getmockd/portmock/pkg/listener"
)

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, HealthResponse{
		Status:    "ok",
		Version:   a.version,
		Uptime:    int64(a.engine.Uptime().Seconds()),
		Listeners: len(a.engine.Listeners()),
	})
}

func (a *API) handleListListeners(w http.ResponseWriter, _ *http.Request) {
	ls := a.engine.Listeners()
	resp := ListenersResponse{Listeners: make([]ListenerSummary, 0, len(ls)), Count: len(ls)}
	for _, l := range ls {
		mocks := 0
		for _, byMethod := range l.Snapshot() {
			mocks += len(byMethod)
		}
		resp.Listeners = append(resp.Listeners, ListenerSummary{Port: l.Port(), Mocks: mocks})
	}
	httputil.WriteOK(w, resp)
}

func (a *API) handleCreateListener(w http.ResponseWriter, r *http.Request) {
	var req CreateListenerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", err.Error())
		return
	}
	if req.Port < 0 || req.Port > 65535 {
		httputil.WriteBadRequest(w, "invalid_port", fmt.Sprintf("port %d out of range", req.Port))
		return
	}

	l, err := a.engine.Listen(req.Port)
	if err != nil {
		a.writeEngineError(w, err, "create listener")
		return
	}
	httputil.WriteCreated(w, ListenerSummary{Port: l.Port()})
}

func (a *API) handleGetListener(w http.ResponseWriter, r *http.Request) {
	l, ok := a.lookupListener(w, r)
	if !ok {
		return
	}
	httputil.WriteOK(w, ListenerResponse{Port: l.Port(), Entries: l.Snapshot()})
}

func (a *API) handleDeleteListener(w http.ResponseWriter, r *http.Request) {
	port, ok := portVar(w, r)
	if !ok {
		return
	}
	if err := a.engine.Close(port); err != nil {
		a.writeEngineError(w, err, "delete listener")
		return
	}
	httputil.WriteNoContent(w)
}

func (a *API) handleAddMock(w http.ResponseWriter, r *http.Request) {
	port, ok := portVar(w, r)
	if !ok {
		return
	}

	var cfg config.MockConfig
	if err := httputil.DecodeJSON(r, &cfg); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", err.Error())
		return
	}

	if err := a.engine.AddMock(port, cfg); err != nil {
		a.writeEngineError(w, err, "add mock")
		return
	}

	l, ok := a.engine.Listener(port)
	if !ok {
		a.writeEngineError(w, fmt.Errorf("%w: %d", engine.ErrListenerNotFound, port), "add mock")
		return
	}
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}
	httputil.WriteCreated(w, l.Snapshot()[cfg.URI][method])
}

func (a *API) handleRemoveMock(w http.ResponseWriter, r *http.Request) {
	l, ok := a.lookupListener(w, r)
	if !ok {
		return
	}

	uri := r.URL.Query().Get("uri")
	method := r.URL.Query().Get("method")
	if uri == "" {
		httputil.WriteBadRequest(w, "missing_uri", "uri query parameter is required")
		return
	}
	if method == "" {
		method = http.MethodGet
	}

	if !l.Remove(uri, method) {
		httputil.WriteNotFound(w, "mock_not_found", fmt.Sprintf("no %s entry for %s", method, uri))
		return
	}
	httputil.WriteNoContent(w)
}

func (a *API) handleSendChunk(w http.ResponseWriter, r *http.Request) {
	l, ok := a.lookupListener(w, r)
	if !ok {
		return
	}

	var req SendChunkRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", err.Error())
		return
	}
	if req.URI == "" {
		httputil.WriteBadRequest(w, "missing_uri", "uri is required")
		return
	}

	if err := l.SendChunk(req.URI, []byte(req.Chunk)); err != nil {
		a.writeEngineError(w, err, "send chunk")
		return
	}
	httputil.WriteNoContent(w)
}

func (a *API) lookupListener(w http.ResponseWriter, r *http.Request) (*listener.Listener, bool) {
	port, ok := portVar(w, r)
	if !ok {
		return nil, false
	}
	l, ok := a.engine.Listener(port)
	if !ok {
		httputil.WriteNotFound(w, "listener_not_found", fmt.Sprintf("no listener on port %d", port))
		return nil, false
	}
	return l, true
}

func portVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	port, err := strconv.Atoi(mux.Vars(r)["port"])
	if err != nil || port <= 0 || port > 65535 {
		httputil.WriteBadRequest(w, "invalid_port", "port must be between 1 and 65535")
		return 0, false
	}
	return port, true
}
