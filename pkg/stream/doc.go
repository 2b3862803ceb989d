// Package stream implements the per-entry broadcast engine behind streaming
// mocks.
//
// A Broadcaster keeps an append-only buffer of published chunks and the
// ordered list of attached clients. Attaching a client replays the whole
// buffer to it before it becomes eligible for live chunks; publishing appends
// to the buffer and writes to every attached client. Both steps run under the
// same per-broadcaster mutex, so a chunk published while a client attaches is
// delivered to it exactly once, either by replay or live.
//
// # Usage
//
//	b := stream.NewBroadcaster()
//	c := stream.NewHTTPClient(id, w, 10*time.Second)
//	if err := b.Attach(c); err != nil {
//	    return
//	}
//	defer b.Detach(c)
//	select {
//	case <-r.Context().Done():
//	case <-c.Done():
//	}
//
// Clients are non-owning references: the HTTP server owns the connection and
// the handler detaches the client before it returns.
package stream
