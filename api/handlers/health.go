package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformkit/scaling-engine/internal/metricsource"
	"github.com/platformkit/scaling-engine/pkg/database"
)

type HealthHandler struct {
	db     *database.DB
	reader metricsource.Reader
}

func NewHealthHandler(db *database.DB, reader metricsource.Reader) *HealthHandler {
	return &HealthHandler{db: db, reader: reader}
}

func (h *HealthHandler) Health(c *gin.Context) {
	components := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			components["database"] = "unreachable"
			healthy = false
		} else {
			components["database"] = "ok"
		}
	} else {
		components["database"] = "disabled"
	}

	if err := h.reader.HealthCheck(c.Request.Context()); err != nil {
		components["metrics"] = "unreachable"
		healthy = false
	} else {
		components["metrics"] = "ok"
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":     state,
		"components": components,
		"timestamp":  time.Now(),
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alive": true})
}
