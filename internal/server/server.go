// Package server exposes the running simulation over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/server/handler"
	"github.com/alanyoungcy/marketsim/internal/server/middleware"
	"github.com/alanyoungcy/marketsim/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication

	// RateLimit is requests per minute per client. Zero or a nil Limiter
	// disables limiting.
	RateLimit int
	Limiter   domain.RateLimiter

	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health     *handler.HealthHandler
	Simulation *handler.SimulationHandler
	Runs       *handler.RunsHandler
	Archive    *handler.ArchiveHandler
	Live       *handler.LiveHandler
	Metrics    http.Handler
}

// Server is the read-only HTTP + WebSocket API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route and wraps the mux in middleware.
func NewServer(cfg Config, h Handlers, hub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	routes(mux, h, hub)

	var root http.Handler = mux
	root = middleware.Auth(cfg.APIKey, "/api/health", "/metrics")(root)
	if cfg.Limiter != nil && cfg.RateLimit > 0 {
		root = middleware.RateLimit(cfg.Limiter, cfg.RateLimit, time.Minute, cfg.TrustedProxies, logger)(root)
	}
	root = middleware.Logging(logger)(root)
	root = middleware.CORS(cfg.CORSOrigins)(root)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.With(slog.String("component", "server")),
	}
}

func routes(mux *http.ServeMux, h Handlers, hub *ws.Hub) {
	mux.HandleFunc("GET /api/health", h.Health.HealthCheck)

	sim := h.Simulation
	mux.HandleFunc("GET /api/status", sim.GetStatus)
	mux.HandleFunc("GET /api/results", sim.GetResults)
	mux.HandleFunc("GET /api/market-state", sim.GetMarketState)
	mux.HandleFunc("GET /api/snapshot", sim.GetLatest)
	mux.HandleFunc("GET /api/prices", sim.ListPrices)
	mux.HandleFunc("GET /api/prices/{asset}", sim.GetPrices)
	mux.HandleFunc("GET /api/entities", sim.ListEntities)
	mux.HandleFunc("GET /api/entities/{id}", sim.GetEntity)
	mux.HandleFunc("GET /api/entities/{id}/transactions", sim.GetEntityTransactions)
	mux.HandleFunc("GET /api/transactions", sim.ListTransactions)
	mux.HandleFunc("GET /api/events", sim.ListEvents)
	mux.HandleFunc("GET /api/regulatory", sim.ListRegulatoryActions)
	mux.HandleFunc("GET /api/analytics", sim.GetAnalytics)
	mux.HandleFunc("GET /api/orderbook/{asset}", sim.GetOrderBook)

	if h.Runs != nil {
		mux.HandleFunc("GET /api/runs", h.Runs.ListRuns)
		mux.HandleFunc("GET /api/runs/{id}", h.Runs.GetRun)
	}
	if h.Archive != nil {
		mux.HandleFunc("GET /api/archive", h.Archive.ListArchived)
		mux.HandleFunc("GET /api/archive/{id}/{file}", h.Archive.GetArchived)
	}
	if h.Live != nil {
		mux.HandleFunc("GET /api/live", h.Live.GetLive)
	}
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the ctx deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
