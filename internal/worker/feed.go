// ABOUTME: WebSocket feed on which worker processes report document lifecycle
// ABOUTME: Translates worker frames into registry mutations, disconnect included

package worker

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/scrivano/scrivano/internal/registry"
)

// Feed accepts worker connections and feeds their lifecycle reports into the
// registry. One connection per worker pid.
type Feed struct {
	reg      *registry.Registry
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[int]*websocket.Conn
}

// NewFeed creates a worker feed driving the given registry.
func NewFeed(reg *registry.Registry, logger *slog.Logger) *Feed {
	return &Feed{
		reg:    reg,
		logger: logger,
		conns:  make(map[int]*websocket.Conn),
		upgrader: websocket.Upgrader{
			// Workers are local processes, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades a worker connection and services it until it closes.
// The worker must announce itself with "hello <pid>" before anything else.
func (f *Feed) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("worker upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	pid, ok := f.awaitHello(ws)
	if !ok {
		_ = ws.Close()
		return
	}

	if !f.register(pid, ws) {
		f.logger.Warn("duplicate worker pid, rejecting", "pid", pid)
		_ = ws.Close()
		return
	}
	f.logger.Info("worker connected", "pid", pid)

	defer func() {
		f.unregister(pid)
		f.reg.WorkerDisconnected(pid)
		f.logger.Info("worker disconnected", "pid", pid)
	}()

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		f.handleFrame(pid, string(data))
	}
}

// Kill force-closes the connection of the given worker, which triggers the
// normal disconnect path. Implements admin.WorkerKiller.
func (f *Feed) Kill(pid int) bool {
	f.mu.Lock()
	ws, ok := f.conns[pid]
	f.mu.Unlock()

	if !ok {
		return false
	}
	_ = ws.Close()
	return true
}

// ConnectedPIDs returns the pids of all currently connected workers.
func (f *Feed) ConnectedPIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	pids := make([]int, 0, len(f.conns))
	for pid := range f.conns {
		pids = append(pids, pid)
	}
	return pids
}

// awaitHello reads the announcement frame and extracts the worker pid.
func (f *Feed) awaitHello(ws *websocket.Conn) (int, bool) {
	_, data, err := ws.ReadMessage()
	if err != nil {
		return 0, false
	}

	tokens := strings.Fields(string(data))
	if len(tokens) != 2 || tokens[0] != "hello" {
		f.logger.Warn("worker sent bad hello", "frame", string(data))
		return 0, false
	}
	pid, err := strconv.Atoi(tokens[1])
	if err != nil || pid <= 0 {
		f.logger.Warn("worker sent bad pid", "frame", string(data))
		return 0, false
	}
	return pid, true
}

func (f *Feed) register(pid int, ws *websocket.Conn) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.conns[pid]; exists {
		return false
	}
	f.conns[pid] = ws
	return true
}

func (f *Feed) unregister(pid int) {
	f.mu.Lock()
	delete(f.conns, pid)
	f.mu.Unlock()
}

// handleFrame applies one lifecycle report to the registry.
func (f *Feed) handleFrame(pid int, frame string) {
	tokens := strings.Fields(frame)
	if len(tokens) != 2 {
		f.logger.Warn("malformed worker frame", "pid", pid, "frame", frame)
		return
	}

	switch tokens[0] {
	case "open":
		f.reg.ViewOpened(pid, tokens[1])
	case "close":
		f.reg.ViewClosed(pid, tokens[1])
	default:
		f.logger.Warn("unknown worker frame", "pid", pid, "frame", frame)
	}
}
