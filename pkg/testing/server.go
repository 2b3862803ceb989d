package testing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/getmockd/portmock/pkg/listener"
	"github.com/getmockd/portmock/pkg/requestlog"
)

// MockServer is a listener bound to a random loopback port for the duration
// of a test.
type MockServer struct {
	t        testing.TB
	listener *listener.Listener
	store    *requestlog.MemoryStore
	baseURL  string
}

// New starts a mock server. It is destroyed when the test completes.
func New(t testing.TB, opts ...listener.Option) *MockServer {
	t.Helper()

	store := requestlog.NewMemoryStore(0)
	opts = append([]listener.Option{
		listener.WithHost("127.0.0.1"),
		listener.WithRequestSink(store),
	}, opts...)

	l, err := listener.New(0, opts...)
	if err != nil {
		t.Fatalf("failed to start mock listener: %v", err)
	}

	m := &MockServer{
		t:        t,
		listener: l,
		store:    store,
		baseURL:  fmt.Sprintf("http://127.0.0.1:%d", l.Port()),
	}
	t.Cleanup(m.Stop)
	return m
}

// URL returns the base URL, e.g. http://127.0.0.1:54321.
func (m *MockServer) URL() string {
	return m.baseURL
}

// Listener returns the underlying listener.
func (m *MockServer) Listener() *listener.Listener {
	return m.listener
}

// Stop destroys the listener. It is called automatically on cleanup.
func (m *MockServer) Stop() {
	_ = m.listener.Destroy()
}

// Mock starts building the entry for (method, uri).
func (m *MockServer) Mock(method, uri string) *MockBuilder {
	return &MockBuilder{server: m, method: method, uri: uri}
}

// Send publishes a chunk to the GET stream at uri. Strings and byte slices
// are sent as is; anything else is JSON encoded.
func (m *MockServer) Send(uri string, chunk any) {
	m.t.Helper()

	data, err := encodeBody(chunk)
	if err != nil {
		m.t.Fatalf("Send %s: %v", uri, err)
	}
	if err := m.listener.SendChunk(uri, data); err != nil {
		m.t.Fatalf("Send %s: %v", uri, err)
	}
}

// Reset removes every entry and clears the request log.
func (m *MockServer) Reset() {
	for uri, byMethod := range m.listener.Snapshot() {
		for method := range byMethod {
			m.listener.Remove(uri, method)
		}
	}
	m.store.Clear()
}

// Requests returns the received requests, oldest first.
func (m *MockServer) Requests() []RequestLog {
	entries := m.store.List(nil)
	out := make([]RequestLog, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		headers := make(map[string]string, len(e.Headers))
		for k, v := range e.Headers {
			if len(v) > 0 {
				headers[k] = v[0]
			}
		}
		out = append(out, RequestLog{
			Method:      e.Method,
			Path:        e.Path,
			Headers:     headers,
			Body:        e.Body,
			QueryString: e.QueryString,
			Kind:        e.Kind,
			Status:      e.ResponseStatus,
		})
	}
	return out
}

// AssertCalled fails the test unless (method, path) was requested at least
// once.
func (m *MockServer) AssertCalled(t testing.TB, method, path string) {
	t.Helper()
	if m.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not", method, path)
	}
}

// AssertCalledTimes fails the test unless (method, path) was requested
// exactly times times.
func (m *MockServer) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()
	if n := m.countCalls(method, path); n != times {
		t.Errorf("expected %s %s to be called %d time(s), but was called %d time(s)", method, path, times, n)
	}
}

// AssertNotCalled fails the test if (method, path) was requested.
func (m *MockServer) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()
	if n := m.countCalls(method, path); n > 0 {
		t.Errorf("expected %s %s not to be called, but was called %d time(s)", method, path, n)
	}
}

func (m *MockServer) countCalls(method, path string) int {
	n := 0
	for _, e := range m.store.List(&requestlog.Filter{Method: strings.ToUpper(method), Path: path}) {
		// Filter.Path is a prefix match.
		if e.Path == path {
			n++
		}
	}
	return n
}
