package admin

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getmockd/portmock/pkg/httputil"
)

func (a *API) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.log.Debug("admin request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (a *API) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.log.Error("admin handler panic", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				httputil.WriteInternalError(w, "internal_error", ErrMsgInternalError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteNotFound(w, "not_found", ErrMsgNotFound)
}

func (a *API) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
}
