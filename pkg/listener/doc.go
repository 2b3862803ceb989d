// Package listener serves mock entries on one TCP port.
//
// A Listener binds its socket in New and routes every request through a
// gorilla/mux table. Each (uri, method) pair is wired into the table once,
// with a trampoline that looks up the current entry at request time, so Add
// can replace an entry's behavior without touching the router.
//
// Entries resolve to one of four strategies when added:
//
//   - static: canned status, headers and body
//   - dynamic: a user-supplied mock.HandlerFunc
//   - proxy: forwarding to an upstream through package forward
//   - streaming: a keep-alive chunked response attached to the entry's
//     stream.Broadcaster; SendChunk publishes to it
//
// Options with none of response, handler or proxy resolve to streaming.
//
// Every request is reported to a requestlog.Sink before routing, again when
// the strategy classifies itself, and once more when the handler returns.
package listener
