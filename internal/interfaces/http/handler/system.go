package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/erp/numbering/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ServiceName and ServiceVersion identify the running build in the
// system info endpoint.
const (
	ServiceName    = "voucher-numbering-service"
	ServiceVersion = "1.0.0"
)

// SystemHandler serves the unauthenticated service metadata endpoints.
type SystemHandler struct {
	BaseHandler
	startTime time.Time
}

// NewSystemHandler records the process start time for uptime reporting.
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{startTime: time.Now()}
}

// SystemInfoResponse describes the running service.
type SystemInfoResponse struct {
	Name      string `json:"name" example:"voucher-numbering-service"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	StartedAt string `json:"started_at" example:"2026-01-23T12:00:00Z"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns the service name, version, and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
		Name:      ServiceName,
		Version:   ServiceVersion,
		GoVersion: runtime.Version(),
		StartedAt: h.startTime.UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}

// PingResponse carries the pong and the server time.
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Liveness check that never touches the database
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(PingResponse{
		Message:   "pong",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
}
