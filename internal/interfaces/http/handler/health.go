package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles the health endpoint
type HealthHandler struct {
	BaseHandler
	startTime time.Time
	checkDB   func() error
}

// NewHealthHandler creates a new HealthHandler. checkDB may be nil.
func NewHealthHandler(checkDB func() error) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		checkDB:   checkDB,
	}
}

// HealthResponse is the health endpoint payload
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}

// Health reports service liveness and database reachability
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	}

	if h.checkDB != nil {
		if err := h.checkDB(); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
		} else {
			resp.Database = "ok"
		}
	}

	h.Success(c, resp)
}
