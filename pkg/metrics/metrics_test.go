package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(80, "static", time.Millisecond)
		m.ClientAttached(80, "/s")
		m.ClientDetached(80, "/s")
		m.ChunkPublished(80, "/s", 2)
		m.ProxyFailed(80, "/p")
		m.MockAdded(80, "static", "")
		m.MockRemoved(80, "static")
		m.ListenerClosed(80)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest(8080, "static", 5*time.Millisecond)
	m.ObserveRequest(8080, "static", 5*time.Millisecond)
	m.ChunkPublished(8080, "/s", 3)
	m.ProxyFailed(8080, "/p")

	assert.InDelta(t, 2, testutil.ToFloat64(m.requests.WithLabelValues("8080", "static")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.chunksPublished.WithLabelValues("8080", "/s")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.chunkDeliveries.WithLabelValues("8080", "/s")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.proxyFailures.WithLabelValues("8080", "/p")), 0)
}

func TestMetrics_Gauges(t *testing.T) {
	m := New()

	m.ClientAttached(8080, "/s")
	m.ClientAttached(8080, "/s")
	m.ClientDetached(8080, "/s")
	assert.InDelta(t, 1, testutil.ToFloat64(m.streamClients.WithLabelValues("8080", "/s")), 0)

	m.MockAdded(8080, "streaming", "")
	m.MockAdded(8080, "static", "streaming")
	assert.InDelta(t, 0, testutil.ToFloat64(m.mocks.WithLabelValues("8080", "streaming")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.mocks.WithLabelValues("8080", "static")), 0)

	m.ListenerClosed(8080)
	assert.Equal(t, 0, testutil.CollectAndCount(m.mocks))

	// The remaining client detaches after the close and the gauge settles at 0.
	m.ClientDetached(8080, "/s")
	assert.InDelta(t, 0, testutil.ToFloat64(m.streamClients.WithLabelValues("8080", "/s")), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(9000, "proxy", time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `portmock_requests_total{kind="proxy",port="9000"} 1`)
}
