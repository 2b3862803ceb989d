package stream

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrClientClosed is returned when writing to a detached or failed client.
var ErrClientClosed = errors.New("stream client closed")

// Client is an attached response stream.
type Client struct {
	// ID identifies the client in logs. It is never exposed in snapshots.
	ID string

	// ConnectedAt is when the client was created.
	ConnectedAt time.Time

	mu           sync.Mutex
	w            io.Writer
	flush        func() error
	setDeadline  func(time.Time) error
	writeTimeout time.Duration
	closed       bool
	sent         int64

	done     chan struct{}
	doneOnce sync.Once
}

// NewClient wraps a plain writer.
func NewClient(id string, w io.Writer) *Client {
	return &Client{
		ID:          id,
		ConnectedAt: time.Now(),
		w:           w,
		done:        make(chan struct{}),
	}
}

// NewHTTPClient wraps a response writer. Every write is flushed. When
// writeTimeout is positive each write gets a deadline, so a stalled peer
// fails its write instead of blocking the publisher.
func NewHTTPClient(id string, w http.ResponseWriter, writeTimeout time.Duration) *Client {
	c := NewClient(id, w)
	rc := http.NewResponseController(w)
	c.flush = rc.Flush
	c.setDeadline = rc.SetWriteDeadline
	c.writeTimeout = writeTimeout
	return c
}

// Done is closed once the client was detached, failed a write or its
// broadcaster was closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ChunksSent returns how many chunks reached the client.
func (c *Client) ChunksSent() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

func (c *Client) write(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	if c.writeTimeout > 0 && c.setDeadline != nil {
		// ErrNotSupported on writers without a connection; ignore.
		_ = c.setDeadline(time.Now().Add(c.writeTimeout))
	}

	if _, err := c.w.Write(chunk); err != nil {
		c.closeLocked()
		return err
	}
	if c.flush != nil {
		if err := c.flush(); err != nil {
			c.closeLocked()
			return err
		}
	}

	c.sent++
	return nil
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	c.closed = true
	c.doneOnce.Do(func() { close(c.done) })
}
