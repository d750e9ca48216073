// ABOUTME: Gateway orchestrator that wires the HTTP server, routes, and middleware
// ABOUTME: Manages server lifecycle with graceful shutdown on context cancellation

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/appsecdash/appsec-gateway/internal/account"
	"github.com/appsecdash/appsec-gateway/internal/agent"
	"github.com/appsecdash/appsec-gateway/internal/auth"
	"github.com/appsecdash/appsec-gateway/internal/config"
	"github.com/appsecdash/appsec-gateway/internal/session"
)

// Gateway owns the HTTP surface of the service. It holds the account
// service, the session registry, and the agent facade, and exposes them
// through the JSON API.
type Gateway struct {
	config     *config.Config
	accounts   *account.Service
	sessions   *session.Registry
	agents     *agent.Facade
	verifier   auth.TokenVerifier
	reports    *ReportStore
	httpServer *http.Server
	logger     *slog.Logger
}

// New assembles a gateway from its collaborators. The report store is
// created from the configured reports directory.
func New(cfg *config.Config, accounts *account.Service, sessions *session.Registry, agents *agent.Facade, verifier auth.TokenVerifier, logger *slog.Logger) (*Gateway, error) {
	reports, err := NewReportStore(cfg.Agent.ReportsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("creating report store: %w", err)
	}

	g := &Gateway{
		config:   cfg,
		accounts: accounts,
		sessions: sessions,
		agents:   agents,
		verifier: verifier,
		reports:  reports,
		logger:   logger.With("component", "gateway"),
	}

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Handler returns the fully composed HTTP handler, including routing,
// authentication gates, and panic recovery.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	gate := auth.Middleware(g.verifier)

	// Public endpoints
	mux.HandleFunc("GET /api/health", g.handleHealth)
	mux.HandleFunc("POST /api/auth/register", g.handleRegister)
	mux.HandleFunc("POST /api/auth/login", g.handleLogin)

	// Authenticated endpoints
	mux.Handle("GET /api/auth/me", gate(http.HandlerFunc(g.handleMe)))
	mux.Handle("POST /api/auth/change-password", gate(http.HandlerFunc(g.handleChangePassword)))
	mux.Handle("POST /api/chat", gate(http.HandlerFunc(g.handleChat)))
	mux.Handle("POST /api/chat/end", gate(http.HandlerFunc(g.handleChatEnd)))
	mux.Handle("GET /api/chat/session", gate(http.HandlerFunc(g.handleChatSession)))
	mux.Handle("POST /api/code-review", gate(http.HandlerFunc(g.handleCodeReview)))
	mux.Handle("GET /api/code-review/reports", gate(http.HandlerFunc(g.handleListReports)))
	mux.Handle("GET /api/code-review/reports/{id}", gate(http.HandlerFunc(g.handleGetReport)))
	mux.Handle("POST /api/threat-modeling", gate(http.HandlerFunc(g.handleThreatModeling)))

	if g.config.Metrics.Enabled {
		// An unset path would make the route pattern malformed and panic
		// ServeMux registration.
		path := g.config.Metrics.Path
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle("GET "+path, promhttp.Handler())
	}

	return g.recoverMiddleware(mux)
}

// handleHealth reports service liveness.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.sendJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "appsec-gateway is running",
	})
}

// recoverMiddleware converts handler panics into a 500 response instead of
// tearing down the connection.
func (g *Gateway) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				g.logger.Error("handler panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				g.sendJSONError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails. Returns nil on graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server, waiting for in-flight requests up to the
// context deadline.
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.httpServer == nil {
		return nil
	}
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	g.logger.Info("gateway shutdown complete")
	return nil
}
