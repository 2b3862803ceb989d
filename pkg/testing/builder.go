package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/getmockd/portmock/pkg/mock"
	"github.com/getmockd/portmock/pkg/script"
)

// MockBuilder builds a mock entry using a fluent API. Nothing is registered
// until Reply is called.
type MockBuilder struct {
	server   *MockServer
	method   string
	uri      string
	mode     mock.Kind
	response *mock.Response
	handler  mock.HandlerFunc
	proxy    *mock.ProxyOptions
	err      error
}

// setError records the first error encountered during building.
func (b *MockBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first error encountered during building.
func (b *MockBuilder) Err() error {
	return b.err
}

func (b *MockBuilder) ensureResponse() *mock.Response {
	if b.response == nil {
		b.response = &mock.Response{}
	}
	if b.response.Headers == nil {
		b.response.Headers = make(map[string]string)
	}
	return b.response
}

// WithStatus sets the response status code. Default is 200.
func (b *MockBuilder) WithStatus(status int) *MockBuilder {
	b.ensureResponse().StatusCode = status
	return b
}

// WithBody sets the response body. Values other than string and []byte are
// JSON encoded.
func (b *MockBuilder) WithBody(body any) *MockBuilder {
	resp := b.ensureResponse()
	switch body.(type) {
	case string, []byte:
	default:
		if _, ok := resp.Headers["Content-Type"]; !ok {
			resp.Headers["Content-Type"] = "application/json"
		}
	}
	data, err := encodeBody(body)
	if err != nil {
		b.setError(fmt.Errorf("WithBody: %w", err))
	}
	resp.Body = data
	return b
}

// WithJSON sets a JSON response body and Content-Type.
func (b *MockBuilder) WithJSON(body any) *MockBuilder {
	resp := b.ensureResponse()
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
	}
	resp.Body = data
	resp.Headers["Content-Type"] = "application/json"
	return b
}

// WithHeader adds a response header.
func (b *MockBuilder) WithHeader(key, value string) *MockBuilder {
	b.ensureResponse().Headers[key] = value
	return b
}

// WithHeaders sets multiple response headers at once.
func (b *MockBuilder) WithHeaders(headers map[string]string) *MockBuilder {
	resp := b.ensureResponse()
	for k, v := range headers {
		resp.Headers[k] = v
	}
	return b
}

// WithHandler answers with a Go function.
func (b *MockBuilder) WithHandler(h http.HandlerFunc) *MockBuilder {
	b.handler = mock.HandlerFunc(h)
	return b
}

// WithScript answers with an expression evaluated per request.
func (b *MockBuilder) WithScript(src string) *MockBuilder {
	s, err := script.Compile(src)
	if err != nil {
		b.setError(fmt.Errorf("WithScript: %w", err))
		return b
	}
	b.handler = s.Handler()
	return b
}

// ProxyTo forwards requests to target.
func (b *MockBuilder) ProxyTo(target string) *MockBuilder {
	b.proxy = &mock.ProxyOptions{Target: target}
	return b
}

// WithProxyTimeout bounds the upstream exchange of a proxy mock.
func (b *MockBuilder) WithProxyTimeout(d time.Duration) *MockBuilder {
	if b.proxy == nil {
		b.setError(fmt.Errorf("WithProxyTimeout: ProxyTo must be called first"))
		return b
	}
	b.proxy.Timeout = d
	return b
}

// Stream pins the streaming strategy.
func (b *MockBuilder) Stream() *MockBuilder {
	b.mode = mock.KindStreaming
	return b
}

// Options returns the mock options built so far.
func (b *MockBuilder) Options() mock.Options {
	return mock.Options{
		URI:      b.uri,
		Method:   b.method,
		Mode:     b.mode,
		Response: b.response,
		Handler:  b.handler,
		Proxy:    b.proxy,
	}
}

// Reply registers the mock, replacing any entry with the same key. Building
// or registration errors fail the test.
//
//	m.Mock("GET", "/api").WithStatus(200).Reply()
func (b *MockBuilder) Reply() *MockServer {
	t := b.server.t
	t.Helper()

	if b.err != nil {
		t.Fatalf("mock %s %s: %v", b.method, b.uri, b.err)
	}
	if err := b.server.listener.Add(b.Options()); err != nil {
		t.Fatalf("mock %s %s: %v", b.method, b.uri, err)
	}
	return b.server
}

// RespondWith sets status and body together.
func (b *MockBuilder) RespondWith(status int, body any) *MockBuilder {
	return b.WithStatus(status).WithBody(body)
}

// RespondJSON answers 200 with a JSON body.
func (b *MockBuilder) RespondJSON(body any) *MockBuilder {
	return b.WithStatus(http.StatusOK).WithJSON(body)
}

// RespondNotFound configures a 404 Not Found response.
func (b *MockBuilder) RespondNotFound() *MockBuilder {
	return b.WithStatus(http.StatusNotFound).WithJSON(map[string]string{
		"error": "not_found",
	})
}

// RespondBadRequest configures a 400 Bad Request response.
func (b *MockBuilder) RespondBadRequest(message string) *MockBuilder {
	return b.WithStatus(http.StatusBadRequest).WithJSON(map[string]string{
		"error": message,
	})
}

// RespondServerError configures a 500 Internal Server Error response.
func (b *MockBuilder) RespondServerError(message string) *MockBuilder {
	return b.WithStatus(http.StatusInternalServerError).WithJSON(map[string]string{
		"error": message,
	})
}

// RespondCreated configures a 201 Created response.
func (b *MockBuilder) RespondCreated(body any) *MockBuilder {
	return b.WithStatus(http.StatusCreated).WithJSON(body)
}

// RespondNoContent configures a 204 No Content response.
func (b *MockBuilder) RespondNoContent() *MockBuilder {
	return b.WithStatus(http.StatusNoContent)
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		return data, nil
	}
}
