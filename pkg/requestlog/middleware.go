package requestlog

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Middleware notifies sink on entry and exit of every request that reaches
// next. It runs before routing so unmatched requests are logged too.
func Middleware(port int, sink Sink) func(http.Handler) http.Handler {
	if sink == nil {
		sink = Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.New().String()
			start := time.Now()

			r = r.WithContext(WithID(r.Context(), id))
			sink.OnRequest(id, port, r)

			sw := &statusWriter{ResponseWriter: w}
			defer func() {
				sink.OnResponse(id, sw.statusCode(), sw.bytes, time.Since(start))
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

// statusWriter records status and size. Unwrap keeps
// http.ResponseController working for streaming and proxy handlers.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) Flush() {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
