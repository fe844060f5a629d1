package realtime

import (
	"context"
	"sync"
)

// Transport is one live push channel to a client. Implementations wrap the
// actual wire protocol; the registry only handshakes, writes, and closes.
type Transport interface {
	// Handshake completes connection establishment. It blocks until the
	// transport is ready to accept writes or the context is done.
	Handshake(ctx context.Context) error

	// WriteMessage pushes one payload to the client.
	WriteMessage(payload []byte) error

	// Close tears the transport down.
	Close() error
}

const sendBufferSize = 64

// Conn is a live connection owned by the registry. Writes go through a
// buffered channel drained by a single writer goroutine, so Publish never
// blocks on a slow client.
type Conn struct {
	transport Transport
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(t Transport) *Conn {
	c := &Conn{
		transport: t,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *Conn) writeLoop() {
	for {
		select {
		case payload := <-c.send:
			if err := c.transport.WriteMessage(payload); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// trySend queues a payload without blocking. A full buffer drops the payload;
// delivery is best effort and clients resync from the durable store.
func (c *Conn) trySend(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.transport.Close()
	})
}
