// ABOUTME: Notification hub fanning registry events out to admin connections
// ABOUTME: Per-connection subscription sets gate which pushes are delivered

package admin

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/scrivano/scrivano/internal/registry"
)

// Hub tracks live admin connections and broadcasts registry lifecycle events
// to the ones subscribed to the matching topic. It implements
// registry.Publisher.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*Conn]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[*Conn]struct{}),
		logger: logger,
	}
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	h.logger.Info("admin connection registered", "conn", c.id, "total", total)
}

// remove deregisters the connection and releases its subscription set.
func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	if ok {
		delete(h.conns, c)
	}
	total := len(h.conns)
	h.mu.Unlock()

	if ok {
		c.close()
		h.logger.Info("admin connection deregistered", "conn", c.id, "total", total)
	}
}

// Publish formats ev as a wire frame and queues it on every subscribed
// connection. Delivery is a non-blocking channel post, so the registry may
// call this while holding its mutation lock without risking a stall.
func (h *Hub) Publish(ev registry.Event) {
	frame := formatEvent(ev)
	topic := ev.Topic()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if c.wantsTopic(topic) {
			c.trySend(frame)
		}
	}
}

// ConnCount returns the number of registered admin connections.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// formatEvent renders a registry event in the admin wire format.
func formatEvent(ev registry.Event) string {
	switch ev.Kind {
	case registry.EventRmDoc:
		return fmt.Sprintf("rmdoc %d %d %s", ev.PID, ev.ViewID, ev.DocName)
	default:
		return fmt.Sprintf("adddoc %d %s %d %d", ev.PID, ev.DocName, ev.ViewID, ev.MemKB)
	}
}
