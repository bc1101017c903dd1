package http

import (
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readspace/readspace/internal/session"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	store   *session.Store
	version string
}

func NewHealthController(store *session.Store, version string) *HealthController {
	return &HealthController{store: store, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check session storage connectivity
	if h.store != nil {
		sqlDB, err := h.store.DB()
		if err != nil {
			checks["session_store"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["session_store"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["session_store"] = "ok"
		}
	} else {
		checks["session_store"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := nethttp.StatusOK
	if status != "healthy" {
		statusCode = nethttp.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
