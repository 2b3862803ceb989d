package requestlog

import (
	"net/http"
	"time"
)

// Sink receives request lifecycle notifications. Implementations must be safe
// for concurrent use.
type Sink interface {
	// OnRequest is called before routing. The sink may read r.Body as long as
	// it restores it.
	OnRequest(id string, port int, r *http.Request)

	// OnClassify records which strategy served the request.
	OnClassify(id, kind string)

	// OnResponse is called when the handler returns.
	OnResponse(id string, status int, bytes int64, d time.Duration)
}

// Nop is a Sink that ignores everything.
type Nop struct{}

func (Nop) OnRequest(string, int, *http.Request)         {}
func (Nop) OnClassify(string, string)                    {}
func (Nop) OnResponse(string, int, int64, time.Duration) {}

type multi []Sink

// Multi returns a Sink that forwards to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	m := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) OnRequest(id string, port int, r *http.Request) {
	for _, s := range m {
		s.OnRequest(id, port, r)
	}
}

func (m multi) OnClassify(id, kind string) {
	for _, s := range m {
		s.OnClassify(id, kind)
	}
}

func (m multi) OnResponse(id string, status int, bytes int64, d time.Duration) {
	for _, s := range m {
		s.OnResponse(id, status, bytes, d)
	}
}
