package listener

import (
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/getmockd/portmock/pkg/forward"
	"github.com/getmockd/portmock/pkg/mock"
	"github.com/getmockd/portmock/pkg/requestlog"
	"github.com/getmockd/portmock/pkg/stream"
)

// resolve builds the strategy handler for opts. It runs once per Add; the
// result is reused for every matching request.
func (l *Listener) resolve(opts mock.Options, b *stream.Broadcaster) (http.Handler, error) {
	kind := opts.Kind()
	route := l.describe(opts.Method, l.port, opts.URI)

	var h http.Handler
	switch kind {
	case mock.KindStatic:
		h = staticHandler(opts.Response)
		l.log.Info("mock registered", "route", route, "mode", kind, "status", opts.Response.Status())
	case mock.KindDynamic:
		h = http.HandlerFunc(opts.Handler)
		l.log.Info("mock registered", "route", route, "mode", kind)
	case mock.KindProxy:
		f, err := l.proxyHandler(opts)
		if err != nil {
			return nil, err
		}
		h = f
		l.log.Info("mock registered",
			"route", route,
			"mode", kind,
			"target", l.describe(opts.Method, f.TargetPort(), opts.URI),
		)
	default:
		h = l.streamingHandler(opts.URI, b)
		l.log.Info("mock registered", "route", route, "mode", kind)
	}

	return l.classify(kind, h), nil
}

// classify reports the strategy kind to the request sink before the strategy
// writes anything.
func (l *Listener) classify(kind mock.Kind, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.sink.OnClassify(requestlog.IDFromContext(r.Context()), string(kind))
		start := time.Now()
		next.ServeHTTP(w, r)
		l.metrics.ObserveRequest(l.port, string(kind), time.Since(start))
	})
}

func staticHandler(resp *mock.Response) http.Handler {
	status := resp.Status()
	headers := maps.Clone(resp.Headers)
	body := append([]byte(nil), resp.Body...)

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
}

func (l *Listener) proxyHandler(opts mock.Options) (*forward.Forwarder, error) {
	uri := opts.URI
	return forward.New(*opts.Proxy,
		forward.WithLogger(l.log),
		forward.WithTransport(l.transport),
		forward.WithFailureHook(func(*http.Request, error) {
			l.metrics.ProxyFailed(l.port, uri)
		}),
	)
}

// streamingHandler keeps the response open and attached to b until the
// client goes away, the entry is replaced or the listener is destroyed.
func (l *Listener) streamingHandler(uri string, b *stream.Broadcaster) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if err := http.NewResponseController(w).Flush(); err != nil {
			l.log.Warn("streaming not supported by response writer", "uri", uri, "error", err)
			return
		}

		id := requestlog.IDFromContext(r.Context())
		client := stream.NewHTTPClient(id, w, l.streamWriteTimeout)
		if err := b.Attach(client); err != nil {
			return
		}
		defer b.Detach(client)

		l.metrics.ClientAttached(l.port, uri)
		defer l.metrics.ClientDetached(l.port, uri)

		l.log.Debug("stream client attached", "uri", uri, "client", id, "remote", r.RemoteAddr)

		select {
		case <-r.Context().Done():
		case <-client.Done():
		}

		l.log.Debug("stream client detached",
			"uri", uri,
			"client", id,
			"chunks", client.ChunksSent(),
			"connected", time.Since(client.ConnectedAt).Round(time.Millisecond))
	})
}

// describe renders a route the way it is shown in logs.
func (l *Listener) describe(method string, port any, uri string) string {
	return fmt.Sprintf("%s http://localhost:%v%s", method, port, uri)
}
