package api

import (
	"github.com/gin-gonic/gin"

	"github.com/leshy-dns/leshy/internal/api/handlers"
)

// RegisterRoutes mounts the read-only introspection endpoints. There are no
// write endpoints: configuration is static once the process has started.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	v1 := r.Group("/api/v1")

	v1.GET("/health", h.Health)
	v1.GET("/stats", h.Stats)
	v1.GET("/routes", h.Routes)
	v1.GET("/zones", h.Zones)
}
