package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/portmock/pkg/engine"
	"github.com/getmockd/portmock/pkg/httputil"
	"github.com/getmockd/portmock/pkg/listener"
	"github.com/getmockd/portmock/pkg/metrics"
	"github.com/getmockd/portmock/pkg/ratelimit"
	"github.com/getmockd/portmock/pkg/requestlog"
)

type testServer struct {
	engine *engine.Engine
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	e := engine.New(engine.WithHost("127.0.0.1"), engine.WithMetrics(metrics.New()))
	srv := httptest.NewServer(New(e, WithVersion("test")).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = e.Shutdown(context.Background())
	})
	return &testServer{engine: e, server: srv}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.server.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (s *testServer) listen(t *testing.T) int {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/listeners", CreateListenerRequest{Port: 0})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created ListenerSummary
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotZero(t, created.Port)
	return created.Port
}

func decodeError(t *testing.T, body []byte) httputil.ErrorResponse {
	t.Helper()
	var e httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	s.listen(t)

	resp, body := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h HealthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "test", h.Version)
	assert.Equal(t, 1, h.Listeners)
}

func TestListeners(t *testing.T) {
	s := newTestServer(t)
	port := s.listen(t)

	resp, body := s.do(t, http.MethodPost, "/listeners", CreateListenerRequest{Port: port})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "listener_exists", decodeError(t, body).Error)

	resp, body = s.do(t, http.MethodPost, "/listeners", `{"port": "x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_json", decodeError(t, body).Error)

	resp, body = s.do(t, http.MethodGet, "/listeners", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list ListenersResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, port, list.Listeners[0].Port)

	resp, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/listeners/%d", port), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = s.do(t, http.MethodDelete, fmt.Sprintf("/listeners/%d", port), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "listener_not_found", decodeError(t, body).Error)

	resp, _ = s.do(t, http.MethodGet, "/listeners/0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMocksAndChunks(t *testing.T) {
	s := newTestServer(t)
	port := s.listen(t)
	base := fmt.Sprintf("/listeners/%d", port)

	resp, body := s.do(t, http.MethodPost, base+"/mocks", map[string]any{
		"uri":    "/a",
		"method": "get",
		"response": map[string]any{
			"statusCode": 201,
			"body":       "ok",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created listener.EntrySnapshot
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "static", string(created.Handler))

	served, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/a", port))
	require.NoError(t, err)
	got, _ := io.ReadAll(served.Body)
	served.Body.Close()
	assert.Equal(t, 201, served.StatusCode)
	assert.Equal(t, "ok", string(got))

	resp, _ = s.do(t, http.MethodPost, base+"/mocks", map[string]any{"uri": "/s", "chunks": []string{"X"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, base+"/chunks", SendChunkRequest{URI: "/s", Chunk: "Y"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, base+"/chunks", SendChunkRequest{URI: "/a/missing", Chunk: "Y"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "route_not_found", decodeError(t, body).Error)

	resp, body = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap ListenerResponse
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, []string{"X", "Y"}, snap.Entries["/s"]["GET"].Chunks)
	assert.Equal(t, "ok", snap.Entries["/a"]["GET"].Options.Response.Body)

	resp, _ = s.do(t, http.MethodDelete, base+"/mocks?uri=/a&method=get", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = s.do(t, http.MethodDelete, base+"/mocks?uri=/a", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = s.do(t, http.MethodDelete, base+"/mocks", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddMock_Invalid(t *testing.T) {
	s := newTestServer(t)
	port := s.listen(t)
	path := fmt.Sprintf("/listeners/%d/mocks", port)

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{name: "bad uri", body: map[string]any{"uri": "nope"}, wantCode: "validation_error"},
		{name: "bad script", body: map[string]any{"uri": "/a", "script": "1 +"}, wantCode: "validation_error"},
		{name: "bad template", body: map[string]any{"uri": "/a/{id"}, wantCode: "validation_error"},
		{name: "unknown field", body: map[string]any{"uri": "/a", "bogus": true}, wantCode: "invalid_json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, http.MethodPost, path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			assert.Equal(t, tt.wantCode, decodeError(t, body).Error)
		})
	}

	resp, body := s.do(t, http.MethodPost, "/listeners/1/mocks", map[string]any{"uri": "/a"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "listener_not_found", decodeError(t, body).Error)
}

func TestRequests(t *testing.T) {
	s := newTestServer(t)
	port := s.listen(t)
	resp, _ := s.do(t, http.MethodPost, fmt.Sprintf("/listeners/%d/mocks", port),
		map[string]any{"uri": "/a", "response": map[string]any{}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, p := range []string{"/a", "/a", "/missing"} {
		r, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, p))
		require.NoError(t, err)
		r.Body.Close()
	}
	require.Eventually(t, func() bool { return s.engine.Store().Count() == 3 }, time.Second, 5*time.Millisecond)

	_, body := s.do(t, http.MethodGet, "/requests?kind=static&limit=1", nil)
	var list RequestsResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, "/a", list.Requests[0].Path)

	_, body = s.do(t, http.MethodGet, "/requests?status=404", nil)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 1, list.Count)
	id := list.Requests[0].ID

	resp, body = s.do(t, http.MethodGet, "/requests/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry requestlog.Entry
	require.NoError(t, json.Unmarshal(body, &entry))
	assert.Equal(t, "/missing", entry.Path)

	resp, _ = s.do(t, http.MethodGet, "/requests/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodDelete, "/requests", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, s.engine.Store().Count())
}

func TestRequestFeed(t *testing.T) {
	s := newTestServer(t)
	port := s.listen(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/requests/ws?path=/feed"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.CloseNow() }()

	// Subscription happens after the upgrade; retry until an entry arrives.
	received := make(chan requestlog.Entry, 1)
	go func() {
		var e requestlog.Entry
		if err := wsjson.Read(ctx, conn, &e); err == nil {
			received <- e
		}
	}()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		r, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/other", port))
		require.NoError(t, err)
		r.Body.Close()
		r, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/feed", port))
		require.NoError(t, err)
		r.Body.Close()

		select {
		case e := <-received:
			assert.Equal(t, "/feed", e.Path)
			assert.Equal(t, port, e.Port)
			return
		case <-tick.C:
		case <-ctx.Done():
			t.Fatal("no entry received on request feed")
		}
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	port := s.listen(t)
	resp, _ := s.do(t, http.MethodPost, fmt.Sprintf("/listeners/%d/mocks", port),
		map[string]any{"uri": "/a", "response": map[string]any{}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	r, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/a", port))
	require.NoError(t, err)
	r.Body.Close()

	require.Eventually(t, func() bool {
		_, body := s.do(t, http.MethodGet, "/metrics", nil)
		return strings.Contains(string(body), fmt.Sprintf(`portmock_requests_total{kind="static",port="%d"} 1`, port))
	}, time.Second, 10*time.Millisecond)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeError(t, body).Error)

	resp, body = s.do(t, http.MethodPut, "/listeners", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "method_not_allowed", decodeError(t, body).Error)
}

func TestParseRequestFilter(t *testing.T) {
	f := parseRequestFilter(map[string][]string{
		"port":   {"8081"},
		"kind":   {"proxy"},
		"method": {"post"},
		"status": {"-1"},
		"limit":  {"x"},
		"offset": {"0"},
	})
	assert.Equal(t, &requestlog.Filter{Port: 8081, Kind: "proxy", Method: "POST"}, f)
}

func TestRateLimit(t *testing.T) {
	e := engine.New()
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })
	limiter := ratelimit.New(ratelimit.Config{Rate: 0.001, Burst: 2})
	t.Cleanup(limiter.Stop)

	srv := httptest.NewServer(New(e, WithRateLimiter(limiter)).Handler())
	t.Cleanup(srv.Close)

	codes := make([]int, 0, 3)
	for range 3 {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
