package stream

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Attach and Publish after Close.
var ErrClosed = errors.New("broadcaster closed")

// Broadcaster fans chunks out to attached clients and replays its history to
// late joiners.
type Broadcaster struct {
	mu      sync.Mutex
	clients []*Client
	chunks  [][]byte
	closed  bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Attach registers c and replays every buffered chunk to it in publish order.
// A replay write failure leaves c registered but closed; the owner detaches
// it when Done fires.
func (b *Broadcaster) Attach(c *Client) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		c.close()
		return ErrClosed
	}

	b.clients = append(b.clients, c)
	for _, chunk := range b.chunks {
		if err := c.write(chunk); err != nil {
			break
		}
	}
	return nil
}

// Detach removes c by identity. It reports whether c was attached and is safe
// to call more than once.
func (b *Broadcaster) Detach(c *Client) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	// No write may reach c once its handler is gone.
	c.close()

	for i, attached := range b.clients {
		if attached == c {
			b.clients = append(b.clients[:i], b.clients[i+1:]...)
			return true
		}
	}
	return false
}

// Publish appends chunk to the replay buffer and writes it to every attached
// client in attach order. Failed writes are skipped. It returns how many
// clients received the chunk.
func (b *Broadcaster) Publish(chunk []byte) (int, error) {
	owned := make([]byte, len(chunk))
	copy(owned, chunk)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	b.chunks = append(b.chunks, owned)

	delivered := 0
	for _, c := range b.clients {
		if err := c.write(owned); err == nil {
			delivered++
		}
	}
	return delivered, nil
}

// Chunks returns a copy of the replay buffer.
func (b *Broadcaster) Chunks() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([][]byte, len(b.chunks))
	copy(out, b.chunks)
	return out
}

// ClientCount returns the number of attached clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close ends every attached client and rejects further attaches and
// publishes. The replay buffer is kept for inspection.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, c := range b.clients {
		c.close()
	}
	b.clients = nil
}
