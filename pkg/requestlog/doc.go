// Package requestlog records what every listener served, for user
// inspection and debugging.
//
// It is distinct from operational logging (log/slog): entries describe
// requests, the strategy that answered them and the response status.
//
// # Sink
//
// Listeners notify a Sink at three points of each request:
//
//   - OnRequest before routing, with a fresh correlation id
//   - OnClassify once the matched mock knows its kind
//     (static, dynamic, proxy, streaming)
//   - OnResponse when the handler returns
//
// Middleware performs the OnRequest/OnResponse calls; the correlation id is
// carried in the request context (IDFromContext) so strategies can classify.
//
// # Stores
//
// MemoryStore keeps a bounded FIFO history with filtering and live
// subscriptions. SlogSink mirrors the same events to a slog.Logger. Multi
// fans out to several sinks.
//
// This is a leaf package with no internal dependencies.
package requestlog
