package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gorilla/mux"

	"github.com/getmockd/portmock/pkg/httputil"
	"github.com/getmockd/portmock/pkg/requestlog"
)

// feedWriteTimeout bounds a single message write on the live request feed.
const feedWriteTimeout = 5 * time.Second

// RequestsResponse is returned by GET /requests.
type RequestsResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
}

// handleListRequests handles GET /requests.
//
// Query Parameters:
//   - port: listener port
//   - kind: strategy (static, dynamic, proxy, streaming)
//   - method: HTTP method
//   - path: path prefix
//   - status: response status code
//   - limit, offset: pagination
func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request) {
	store := a.engine.Store()
	entries := store.List(parseRequestFilter(r.URL.Query()))
	httputil.WriteOK(w, RequestsResponse{
		Requests: entries,
		Count:    len(entries),
		Total:    store.Count(),
	})
}

// handleGetRequest handles GET /requests/{id}.
func (a *API) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	entry := a.engine.Store().Get(mux.Vars(r)["id"])
	if entry == nil {
		httputil.WriteNotFound(w, "not_found", ErrMsgNotFound)
		return
	}
	httputil.WriteOK(w, entry)
}

// handleClearRequests handles DELETE /requests.
func (a *API) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	store := a.engine.Store()
	count := store.Count()
	store.Clear()
	httputil.WriteOK(w, map[string]any{
		"message": "Request logs cleared",
		"cleared": count,
	})
}

// handleRequestFeed handles GET /requests/ws. Every new or completed request
// log entry matching the query filter is sent as a JSON text message.
func (a *API) handleRequestFeed(w http.ResponseWriter, r *http.Request) {
	filter := parseRequestFilter(r.URL.Query())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		a.log.Debug("request feed upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	sub, unsubscribe := a.engine.Store().Subscribe()
	defer unsubscribe()

	// The feed is write-only; CloseRead handles control frames and cancels
	// ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	a.log.Debug("request feed connected", "remote", r.RemoteAddr)
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-sub:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			if !filter.Match(entry) {
				continue
			}
			if err := writeFeed(ctx, conn, entry); err != nil {
				if !errors.Is(err, context.Canceled) {
					a.log.Debug("request feed write failed", "error", err)
				}
				return
			}
		}
	}
}

func writeFeed(ctx context.Context, conn *websocket.Conn, entry *requestlog.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, entry)
}
