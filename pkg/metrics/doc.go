// Package metrics exposes Prometheus collectors for portmock listeners.
//
// Metrics live on a private registry so several engines (or tests) never
// collide on the default registerer:
//
//   - portmock_requests_total{port,kind}: requests served per strategy
//   - portmock_request_duration_seconds{port,kind}: handler latency
//   - portmock_stream_clients{port,uri}: attached streaming clients
//   - portmock_chunks_published_total{port,uri}: sendChunk calls
//   - portmock_chunk_deliveries_total{port,uri}: successful client writes
//   - portmock_proxy_failures_total{port,uri}: upstream transport failures
//   - portmock_mocks{port,kind}: registered entries
//
// Every method is safe on a nil *Metrics, so components can treat metrics as
// optional.
package metrics
