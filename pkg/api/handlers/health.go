package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/castellan-home/castellan/pkg/api/types"
	"github.com/castellan-home/castellan/pkg/device"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	registry *device.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *device.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health status of the gateway and a device readiness count
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	devices := h.registry.List()

	ready := 0
	for _, d := range devices {
		if d.ConnectionState() == device.StateReady {
			ready++
		}
	}

	c.JSON(http.StatusOK, types.HealthResponse{
		Status:    "healthy",
		Devices:   len(devices),
		Ready:     ready,
		Timestamp: time.Now(),
	})
}
