// ABOUTME: Gateway orchestrator wiring registry, hub, auth and HTTP endpoints
// ABOUTME: Owns the http.Server lifecycle including graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/scrivano/scrivano/internal/admin"
	"github.com/scrivano/scrivano/internal/auth"
	"github.com/scrivano/scrivano/internal/config"
	"github.com/scrivano/scrivano/internal/registry"
	"github.com/scrivano/scrivano/internal/store"
	"github.com/scrivano/scrivano/internal/sysmon"
	"github.com/scrivano/scrivano/internal/webui"
	"github.com/scrivano/scrivano/internal/worker"
)

// Gateway orchestrates the scrivanod server components: the session registry,
// the admin notification hub, the credential gate and the worker feed, all
// served from one HTTP server.
type Gateway struct {
	config     *config.Config
	registry   *registry.Registry
	hub        *admin.Hub
	tokens     *auth.TokenStore
	feed       *worker.Feed
	audit      *store.AuditLog
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a fully wired gateway from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	var audit *store.AuditLog
	if cfg.Database.Path != "" {
		var err error
		audit, err = store.NewAuditLog(cfg.Database.Path, logger.With("component", "store"))
		if err != nil {
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
	}

	tokens := auth.NewTokenStore([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	hub := admin.NewHub(logger.With("component", "hub"))
	sampler := sysmon.New()
	reg := registry.New(hub, sampler.ProcessMemKB, logger.With("component", "registry"))
	feed := worker.NewFeed(reg, logger.With("component", "worker"))

	var auditor auth.Auditor
	if audit != nil {
		auditor = audit
	}
	adminSrv := admin.NewServer(hub, tokens, reg, sampler, feed, auditor, logger.With("component", "admin"))

	gate := auth.NewGate(
		cfg.Admin.Username,
		cfg.Admin.PasswordHash,
		cfg.Admin.UIPath,
		tokens,
		auditor,
		logger.With("component", "auth"),
	)

	gw := &Gateway{
		config:   cfg,
		registry: reg,
		hub:      hub,
		tokens:   tokens,
		feed:     feed,
		audit:    audit,
		logger:   logger.With("component", "gateway"),
	}

	console := webui.NewConsole("/adminws", logger.With("component", "webui"))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", gw.handleHealth)
	mux.Handle(cfg.Admin.UIPath, gate.Protect(console))
	mux.HandleFunc("/adminws", adminSrv.HandleWS)
	mux.HandleFunc("/workerws", feed.HandleWS)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Registry exposes the session registry, mainly for in-process callers that
// host documents without a worker socket (and for tests).
func (g *Gateway) Registry() *registry.Registry {
	return g.registry
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails. Returns nil on graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		g.closeAudit()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := g.httpServer.Shutdown(shutdownCtx); err != nil {
		g.logger.Warn("shutdown incomplete", "error", err)
	}
	g.closeAudit()
	return nil
}

func (g *Gateway) closeAudit() {
	if g.audit != nil {
		if err := g.audit.Close(); err != nil {
			g.logger.Warn("closing audit log", "error", err)
		}
	}
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}
