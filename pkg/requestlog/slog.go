package requestlog

import (
	"log/slog"
	"net/http"
	"time"
)

// SlogSink writes request lifecycle events to an operational logger at debug
// level.
type SlogSink struct {
	Log *slog.Logger
}

// OnRequest implements Sink.
func (s SlogSink) OnRequest(id string, port int, r *http.Request) {
	s.Log.Debug("request received", "id", id, "port", port, "method", r.Method, "path", r.URL.Path)
}

// OnClassify implements Sink.
func (s SlogSink) OnClassify(id, kind string) {
	s.Log.Debug("request classified", "id", id, "kind", kind)
}

// OnResponse implements Sink.
func (s SlogSink) OnResponse(id string, status int, bytes int64, d time.Duration) {
	s.Log.Debug("request completed", "id", id, "status", status, "bytes", bytes, "duration", d)
}
