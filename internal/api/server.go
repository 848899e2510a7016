// Package api provides the read-only introspection HTTP API for Leshy.
// It exposes process health, query/cache counters, installed routes and
// the configured zone list via a Gin-based HTTP server. There is no
// authentication layer and no write endpoints: the API is disabled by
// default and meant for binding to loopback/private interfaces only.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leshy-dns/leshy/internal/api/handlers"
	"github.com/leshy-dns/leshy/internal/api/middleware"
	"github.com/leshy-dns/leshy/internal/cache"
	"github.com/leshy-dns/leshy/internal/config"
	"github.com/leshy-dns/leshy/internal/metrics"
	"github.com/leshy-dns/leshy/internal/route"
)

// Server is the introspection API server.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to cfg.API.Listen. Pass nil for stats/cache/
// routes if that subsystem isn't available; the corresponding response
// fields are left zero-valued.
func New(cfg *config.Config, logger *slog.Logger, stats *metrics.DNSStats, c *cache.Cache, routes *route.Controller) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(cfg, logger, stats, c, routes)
	RegisterRoutes(engine, h)

	httpServer := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

// Addr returns the server's configured listen address.
func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
