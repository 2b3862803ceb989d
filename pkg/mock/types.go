// Package mock defines the options a mock entry is registered with and the
// rules that pick its response strategy.
package mock

import (
	"net/http"
	"strings"
	"time"
)

// Kind identifies the response strategy of a mock entry.
type Kind string

// Response strategies.
const (
	KindStatic    Kind = "static"
	KindDynamic   Kind = "dynamic"
	KindProxy     Kind = "proxy"
	KindStreaming Kind = "streaming"
)

// HandlerFunc is a scripted responder. It owns the whole request/response
// interaction.
type HandlerFunc func(w http.ResponseWriter, r *http.Request)

// Response is a canned reply.
type Response struct {
	// StatusCode defaults to 200 when zero.
	StatusCode int               `json:"statusCode,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`
}

// Status returns the configured status code or 200.
func (r *Response) Status() int {
	if r.StatusCode == 0 {
		return http.StatusOK
	}
	return r.StatusCode
}

// ProxyOptions configures forwarding to an upstream target.
type ProxyOptions struct {
	// Target is the absolute upstream URL, e.g. http://localhost:9000.
	Target string `json:"target"`

	// ChangeOrigin rewrites the Host header to the target host.
	ChangeOrigin bool `json:"changeOrigin,omitempty"`

	// XForward adds X-Forwarded-For/-Host/-Proto headers.
	XForward bool `json:"xfwd,omitempty"`

	// Headers are set on every outbound request.
	Headers map[string]string `json:"headers,omitempty"`

	// Timeout bounds the upstream exchange. Zero means no limit.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Key identifies an entry inside a listener.
type Key struct {
	URI    string
	Method string
}

func (k Key) String() string {
	return k.Method + " " + k.URI
}

// Options is the configuration snapshot of one mock entry. At most one of
// Response, Handler and Proxy is expected; none of them selects streaming.
type Options struct {
	URI    string `json:"uri"`
	Method string `json:"method"`

	Response *Response     `json:"response,omitempty"`
	Handler  HandlerFunc   `json:"-"`
	Proxy    *ProxyOptions `json:"proxy,omitempty"`

	// Mode optionally pins the strategy. When empty the strategy is inferred.
	Mode Kind `json:"mode,omitempty"`
}

// Key returns the (uri, METHOD) pair of the options.
func (o *Options) Key() Key {
	return Key{URI: o.URI, Method: strings.ToUpper(o.Method)}
}

// Kind returns the strategy the options resolve to.
func (o *Options) Kind() Kind {
	if o.Mode != "" {
		return o.Mode
	}
	switch {
	case o.Response != nil:
		return KindStatic
	case o.Handler != nil:
		return KindDynamic
	case o.Proxy != nil:
		return KindProxy
	default:
		return KindStreaming
	}
}
