// ABOUTME: Admin WebSocket endpoint, per-connection read loop and dispatch
// ABOUTME: Combines token store, registry and hub into the wire protocol

package admin

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/scrivano/scrivano/internal/auth"
	"github.com/scrivano/scrivano/internal/registry"
)

// TokenValidator checks a candidate admin token against the current one.
type TokenValidator interface {
	Validate(candidate string) bool
}

// SystemSampler provides host resource numbers for admin stats queries.
type SystemSampler interface {
	TotalMemKB() (uint64, error)
	MemoryNumbers() (total, used, free uint64, err error)
	CPUPercent() (float64, error)
}

// WorkerKiller force-disconnects a worker process by pid.
// Returns false if no such worker is connected.
type WorkerKiller interface {
	Kill(pid int) bool
}

// Server owns the admin WebSocket endpoint. Each accepted connection runs an
// independent read loop; all shared state lives in the hub, the token store
// and the registry.
type Server struct {
	hub      *Hub
	tokens   TokenValidator
	reg      *registry.Registry
	sys      SystemSampler
	killer   WorkerKiller
	audit    auth.Auditor
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates the admin protocol server. sys, killer and audit may be
// nil; the corresponding commands then report zero values or failure.
func NewServer(hub *Hub, tokens TokenValidator, reg *registry.Registry, sys SystemSampler, killer WorkerKiller, audit auth.Auditor, logger *slog.Logger) *Server {
	return &Server{
		hub:    hub,
		tokens: tokens,
		reg:    reg,
		sys:    sys,
		killer: killer,
		audit:  audit,
		upgrader: websocket.Upgrader{
			CheckOrigin: sameHostOrigin,
		},
		logger: logger,
	}
}

// HandleWS upgrades the request and services the connection until it closes.
// Closing deregisters the connection from the hub, which also releases its
// subscription set.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("admin upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newConn(ws, s.logger)
	s.hub.add(c)
	go c.writePump()

	defer s.hub.remove(c)

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.dispatch(c, string(data))
	}
}

// dispatch decodes one inbound frame and applies it to the connection.
// Protocol errors never terminate the connection.
func (s *Server) dispatch(c *Conn, frame string) {
	cmd, err := parseCommand(frame)

	if !c.isAuthenticated() {
		s.dispatchUnauthenticated(c, cmd)
		return
	}

	if err != nil {
		s.logger.Warn("malformed admin command", "conn", c.id, "error", err)
		return
	}

	switch cmd := cmd.(type) {
	case authCmd:
		// Re-authentication re-checks the token so a connection holding a
		// replaced token fails loudly.
		if !s.tokens.Validate(cmd.token) {
			c.trySend(replyInvalidAuthToken)
		}

	case subscribeCmd:
		c.subscribe(cmd.topics)
		s.logger.Debug("admin subscribed", "conn", c.id, "topics", cmd.topics)

	case unsubscribeCmd:
		c.unsubscribe(cmd.topics)
		s.logger.Debug("admin unsubscribed", "conn", c.id, "topics", cmd.topics)

	case activeDocsCountCmd:
		c.trySend(fmt.Sprintf("active_docs_count %d", s.reg.ActiveDocsCount()))

	case activeUsersCountCmd:
		c.trySend(fmt.Sprintf("active_users_count %d", s.reg.ActiveUsersCount()))

	case documentsCmd:
		c.trySend(formatDocuments(s.reg.Documents()))

	case totalMemCmd:
		c.trySend(fmt.Sprintf("total_mem %d", s.totalMemKB()))

	case memStatsCmd:
		total, used, free := s.memoryNumbers()
		c.trySend(fmt.Sprintf("mem_stats %d %d %d", total, used, free))

	case cpuStatsCmd:
		c.trySend(fmt.Sprintf("cpu_stats %d", s.cpuPercent()))

	case killCmd:
		if s.killer == nil || !s.killer.Kill(cmd.pid) {
			s.logger.Warn("kill for unknown worker", "conn", c.id, "pid", cmd.pid)
			return
		}
		s.logger.Info("worker killed by admin", "conn", c.id, "pid", cmd.pid)
		if s.audit != nil {
			s.audit.Append("admin", "worker_killed", fmt.Sprintf("pid=%d", cmd.pid))
		}
	}
}

// dispatchUnauthenticated handles frames on a connection that has not
// authenticated yet. Only auth frames can change its state; everything else,
// malformed frames included, draws NotAuthenticated.
func (s *Server) dispatchUnauthenticated(c *Conn, cmd command) {
	cred, ok := cmd.(authCmd)
	if !ok {
		c.trySend(replyNotAuthenticated)
		return
	}

	if cred.token == "" || !s.tokens.Validate(cred.token) {
		s.logger.Warn("admin auth rejected", "conn", c.id)
		c.trySend(replyInvalidAuthToken)
		return
	}

	c.authenticate()
	s.logger.Info("admin authenticated", "conn", c.id)
}

func (s *Server) totalMemKB() uint64 {
	if s.sys == nil {
		return 0
	}
	kb, err := s.sys.TotalMemKB()
	if err != nil {
		s.logger.Warn("sampling total memory", "error", err)
		return 0
	}
	return kb
}

func (s *Server) memoryNumbers() (total, used, free uint64) {
	if s.sys == nil {
		return 0, 0, 0
	}
	total, used, free, err := s.sys.MemoryNumbers()
	if err != nil {
		s.logger.Warn("sampling memory stats", "error", err)
		return 0, 0, 0
	}
	return total, used, free
}

func (s *Server) cpuPercent() int {
	if s.sys == nil {
		return 0
	}
	pct, err := s.sys.CPUPercent()
	if err != nil {
		s.logger.Warn("sampling cpu", "error", err)
		return 0
	}
	return int(pct)
}

// formatDocuments renders the documents reply: the keyword followed by one
// "<pid> <docname> <views>" line per live session.
func formatDocuments(docs []registry.DocumentInfo) string {
	var b strings.Builder
	b.WriteString("documents")
	for _, d := range docs {
		fmt.Fprintf(&b, "\n%d %s %d", d.PID, d.DocName, d.Views)
	}
	return b.String()
}

// sameHostOrigin accepts requests with no Origin header (non-browser clients)
// or an Origin matching the request host.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.HasSuffix(origin, "://"+r.Host) || origin == r.Host
}
