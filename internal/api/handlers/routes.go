package handlers

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leshy-dns/leshy/internal/api/models"
)

// Routes reports every route currently owned by the route controller.
func (h *Handler) Routes(c *gin.Context) {
	if h.routes == nil {
		c.JSON(http.StatusOK, models.RoutesResponse{})
		return
	}

	owned := h.routes.Owned()
	out := make([]models.RouteResponse, 0, len(owned))
	for _, r := range owned {
		out = append(out, models.RouteResponse{
			Destination: r.Destination.String(),
			Gateway:     gatewayString(r.NextHop.Gateway),
			Device:      r.NextHop.Device,
			Provenance:  r.Provenance.String(),
			Zone:        r.Zone,
			QueryName:   r.QueryName,
			InsertedAt:  r.InsertedAt,
		})
	}

	c.JSON(http.StatusOK, models.RoutesResponse{Routes: out, Count: len(out)})
}

func gatewayString(ip net.IP) string {
	if len(ip) == 0 {
		return ""
	}
	return ip.String()
}
