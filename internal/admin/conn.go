// ABOUTME: One admin WebSocket connection with its auth state and subscriptions
// ABOUTME: Outbound frames go through a buffered channel drained by a write pump

package admin

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendQueueDepth bounds the per-connection outbound queue. A connection whose
// queue is full has frames dropped rather than slowing the publisher down.
const sendQueueDepth = 64

// Conn is one admin WebSocket connection. It holds the connection's
// authentication state, its topic subscription set, and the outbound frame
// queue used by the hub.
type Conn struct {
	id     string
	ws     *websocket.Conn
	send   chan string
	logger *slog.Logger

	mu            sync.Mutex
	closed        bool
	authenticated bool
	topics        map[string]struct{}
}

func newConn(ws *websocket.Conn, logger *slog.Logger) *Conn {
	id := uuid.New().String()
	return &Conn{
		id:     id,
		ws:     ws,
		send:   make(chan string, sendQueueDepth),
		logger: logger.With("conn", id),
		topics: make(map[string]struct{}),
	}
}

// writePump drains the send queue onto the socket. It exits when the queue is
// closed or a write fails; the read loop notices the dead socket and tears the
// connection down.
func (c *Conn) writePump() {
	for frame := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			c.logger.Debug("admin write failed", "error", err)
			return
		}
	}
}

// trySend queues a frame without blocking. Frames to a closed connection are
// discarded; frames to a saturated queue are dropped with a warning.
func (c *Conn) trySend(frame string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.logger.Warn("admin send queue full, dropping frame")
	}
}

// close marks the connection dead and releases its write pump.
// Idempotent; safe to call from any goroutine.
func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

func (c *Conn) authenticate() {
	c.mu.Lock()
	c.authenticated = true
	c.mu.Unlock()
}

func (c *Conn) isAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

func (c *Conn) subscribe(topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		c.topics[t] = struct{}{}
	}
}

func (c *Conn) unsubscribe(topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.topics, t)
	}
}

// wantsTopic reports whether pushes for topic should reach this connection.
// Unauthenticated connections never receive pushes.
func (c *Conn) wantsTopic(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.authenticated {
		return false
	}
	_, ok := c.topics[topic]
	return ok
}
