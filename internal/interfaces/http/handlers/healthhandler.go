package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/shared/utils"
	"github.com/inventra-labs/gatekeeper/internal/shared/version"
)

// Pinger is satisfied by the database and Redis health probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	probes map[string]Pinger
}

func NewHealthHandler(probes map[string]Pinger) *HealthHandler {
	return &HealthHandler{probes: probes}
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthCheck godoc
// @Summary Liveness and dependency check
// @Tags system
// @Produce json
// @Success 200 {object} utils.APIResponse{data=HealthResponse}
// @Failure 503 {object} utils.APIResponse{data=HealthResponse}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.probes))}
	status := http.StatusOK
	for name, p := range h.probes {
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	utils.SuccessResponse(c, status, "", resp)
}

// Version godoc
// @Summary Build information
// @Tags system
// @Produce json
// @Success 200 {object} utils.APIResponse{data=version.Info}
// @Router /version [get]
func (h *HealthHandler) Version(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", version.Get())
}
