// Package forward relays mock requests to an upstream target.
package forward

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/getmockd/portmock/pkg/logging"
	"github.com/getmockd/portmock/pkg/mock"
)

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(f *Forwarder) {
		f.log = logging.OrNop(log)
	}
}

// WithTransport replaces the upstream round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Forwarder) {
		f.transport = rt
	}
}

// WithFailureHook is called after a transport failure was answered.
func WithFailureHook(fn func(r *http.Request, err error)) Option {
	return func(f *Forwarder) {
		f.onFailure = fn
	}
}

// Forwarder proxies requests to a single upstream, keeping method and path.
// Transport failures are answered with 500 and the error text; there is no
// retry.
type Forwarder struct {
	target    *url.URL
	opts      mock.ProxyOptions
	transport http.RoundTripper
	log       *slog.Logger
	onFailure func(r *http.Request, err error)
	proxy     *httputil.ReverseProxy
}

// New creates a forwarder for opts.Target.
func New(opts mock.ProxyOptions, options ...Option) (*Forwarder, error) {
	target, err := url.Parse(opts.Target)
	if err != nil {
		return nil, err
	}

	f := &Forwarder{
		target:    target,
		opts:      opts,
		transport: http.DefaultTransport,
		log:       logging.Nop(),
	}
	for _, o := range options {
		o(f)
	}

	f.proxy = &httputil.ReverseProxy{
		Rewrite:       f.rewrite,
		Transport:     f.transport,
		FlushInterval: -1,
		ErrorHandler:  f.fail,
		ErrorLog:      slog.NewLogLogger(f.log.Handler(), slog.LevelDebug),
	}
	return f, nil
}

// Target returns the upstream URL.
func (f *Forwarder) Target() *url.URL {
	u := *f.target
	return &u
}

// TargetPort returns the port of the target URL, defaulting by scheme.
func (f *Forwarder) TargetPort() string {
	if p := f.target.Port(); p != "" {
		return p
	}
	if f.target.Scheme == "https" {
		return "443"
	}
	return "80"
}

// ServeHTTP implements http.Handler.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.opts.Timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), f.opts.Timeout)
		defer cancel()
		r = r.WithContext(ctx)
	}
	f.proxy.ServeHTTP(w, r)
}

func (f *Forwarder) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(f.target)

	// SetURL rewrites Host; keep the caller's unless changeOrigin is set.
	if !f.opts.ChangeOrigin {
		pr.Out.Host = pr.In.Host
	}
	if f.opts.XForward {
		pr.SetXForwarded()
	}
	for k, v := range f.opts.Headers {
		pr.Out.Header.Set(k, v)
	}
}

func (f *Forwarder) fail(w http.ResponseWriter, r *http.Request, err error) {
	f.log.Error("proxy forwarding failed",
		"method", r.Method,
		"path", r.URL.Path,
		"target", f.target.String(),
		"error", err,
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(err.Error()))

	if f.onFailure != nil {
		f.onFailure(r, err)
	}
}

// NewTransport returns an http.Transport tuned for mock upstreams.
func NewTransport(dialTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
