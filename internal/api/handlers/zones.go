package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leshy-dns/leshy/internal/api/models"
	"github.com/leshy-dns/leshy/internal/config"
)

// Zones reports the configured zone list and the implicit default zone.
func (h *Handler) Zones(c *gin.Context) {
	if h.cfg == nil {
		c.JSON(http.StatusOK, models.ZonesResponse{})
		return
	}

	zones := make([]models.ZoneResponse, 0, len(h.cfg.Zones))
	for i, z := range h.cfg.Zones {
		zones = append(zones, zoneResponse(i, z))
	}

	c.JSON(http.StatusOK, models.ZonesResponse{
		Zones:   zones,
		Default: zoneResponse(len(h.cfg.Zones), h.cfg.Default),
	})
}

func zoneResponse(index int, z config.ZoneConfig) models.ZoneResponse {
	return models.ZoneResponse{
		Index:     index,
		Patterns:  z.Patterns,
		Upstreams: z.Upstreams,
		Route:     string(z.Route),
		Exclusive: z.Exclusive,
	}
}
