// Package handlers implements the introspection API endpoint handlers.
package handlers

import (
	"log/slog"
	"time"

	"github.com/leshy-dns/leshy/internal/cache"
	"github.com/leshy-dns/leshy/internal/config"
	"github.com/leshy-dns/leshy/internal/metrics"
	"github.com/leshy-dns/leshy/internal/route"
)

// Handler contains the read-only dependencies exposed by the introspection
// API. There are no write endpoints: config is static once the process has
// started.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time

	stats  *metrics.DNSStats
	cache  *cache.Cache
	routes *route.Controller
}

// New creates a Handler with the given dependencies.
func New(cfg *config.Config, logger *slog.Logger, stats *metrics.DNSStats, c *cache.Cache, routes *route.Controller) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
		stats:     stats,
		cache:     c,
		routes:    routes,
	}
}
