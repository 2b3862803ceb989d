package admin

import (
	"errors"
	"net/http"

	"github.com/getmockd/portmock/pkg/engine"
	"github.com/getmockd/portmock/pkg/httputil"
	"github.com/getmockd/portmock/pkg/listener"
	"github.com/getmockd/portmock/pkg/mock"
)

// Client facing error messages.
const (
	ErrMsgInternalError    = "An internal error occurred"
	ErrMsgNotFound         = "Resource not found"
	ErrMsgValidationFailed = "Request validation failed"
	ErrMsgInvalidJSON      = "Invalid JSON in request body"
)

// writeEngineError maps engine, listener and validation errors to HTTP
// responses. Unknown errors are logged and reported as 500.
func (a *API) writeEngineError(w http.ResponseWriter, err error, operation string) {
	var verr *mock.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteErrorWithDetails(w, http.StatusBadRequest, "validation_error", ErrMsgValidationFailed,
			map[string]string{"field": verr.Field, "message": verr.Message})
	case errors.Is(err, engine.ErrInvalidMock), errors.Is(err, listener.ErrInvalidRoute):
		httputil.WriteBadRequest(w, "validation_error", err.Error())
	case errors.Is(err, listener.ErrRouteNotFound):
		httputil.WriteNotFound(w, "route_not_found", err.Error())
	case errors.Is(err, engine.ErrListenerNotFound):
		httputil.WriteNotFound(w, "listener_not_found", err.Error())
	case errors.Is(err, engine.ErrListenerExists):
		httputil.WriteConflict(w, "listener_exists", err.Error())
	case errors.Is(err, listener.ErrDestroyed), errors.Is(err, engine.ErrShutdown):
		httputil.WriteError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		a.log.Error("operation failed", "operation", operation, "error", err)
		httputil.WriteInternalError(w, "internal_error", ErrMsgInternalError)
	}
}
