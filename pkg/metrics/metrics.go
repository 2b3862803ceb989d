package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portmock"

// Metrics groups the portmock collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamClients   *prometheus.GaugeVec
	chunksPublished *prometheus.CounterVec
	chunkDeliveries *prometheus.CounterVec
	proxyFailures   *prometheus.CounterVec
	mocks           *prometheus.GaugeVec
}

// New creates the collectors on a fresh registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests served by mock entries, by strategy.",
		}, []string{"port", "kind"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent in mock handlers. Streaming requests observe their connection lifetime.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"port", "kind"}),
		streamClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Streaming clients currently attached.",
		}, []string{"port", "uri"}),
		chunksPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_published_total",
			Help:      "Chunks published to streaming entries.",
		}, []string{"port", "uri"}),
		chunkDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_deliveries_total",
			Help:      "Live chunk writes that reached a client.",
		}, []string{"port", "uri"}),
		proxyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_failures_total",
			Help:      "Upstream transport failures answered with 500.",
		}, []string{"port", "uri"}),
		mocks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mocks",
			Help:      "Registered mock entries, by strategy.",
		}, []string{"port", "kind"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.streamClients,
		m.chunksPublished,
		m.chunkDeliveries,
		m.proxyFailures,
		m.mocks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(port int, kind string, d time.Duration) {
	if m == nil {
		return
	}
	p := strconv.Itoa(port)
	m.requests.WithLabelValues(p, kind).Inc()
	m.requestDuration.WithLabelValues(p, kind).Observe(d.Seconds())
}

// ClientAttached increments the attached-client gauge.
func (m *Metrics) ClientAttached(port int, uri string) {
	if m == nil {
		return
	}
	m.streamClients.WithLabelValues(strconv.Itoa(port), uri).Inc()
}

// ClientDetached decrements the attached-client gauge.
func (m *Metrics) ClientDetached(port int, uri string) {
	if m == nil {
		return
	}
	m.streamClients.WithLabelValues(strconv.Itoa(port), uri).Dec()
}

// ChunkPublished counts a publish and the clients it reached.
func (m *Metrics) ChunkPublished(port int, uri string, delivered int) {
	if m == nil {
		return
	}
	p := strconv.Itoa(port)
	m.chunksPublished.WithLabelValues(p, uri).Inc()
	m.chunkDeliveries.WithLabelValues(p, uri).Add(float64(delivered))
}

// ProxyFailed counts an upstream transport failure.
func (m *Metrics) ProxyFailed(port int, uri string) {
	if m == nil {
		return
	}
	m.proxyFailures.WithLabelValues(strconv.Itoa(port), uri).Inc()
}

// MockAdded adjusts the entry gauge when an entry of kind replaces one of
// previous (empty for a new key).
func (m *Metrics) MockAdded(port int, kind, previous string) {
	if m == nil {
		return
	}
	p := strconv.Itoa(port)
	if previous != "" {
		m.mocks.WithLabelValues(p, previous).Dec()
	}
	m.mocks.WithLabelValues(p, kind).Inc()
}

// MockRemoved decrements the entry gauge.
func (m *Metrics) MockRemoved(port int, kind string) {
	if m == nil {
		return
	}
	m.mocks.WithLabelValues(strconv.Itoa(port), kind).Dec()
}

// ListenerClosed drops the entry series labelled with port. Stream client
// series are left alone: attached handlers still decrement them on their way
// out and bring them back to zero.
func (m *Metrics) ListenerClosed(port int) {
	if m == nil {
		return
	}
	m.mocks.DeletePartialMatch(prometheus.Labels{"port": strconv.Itoa(port)})
}
