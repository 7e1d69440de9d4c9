package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformkit/scaling-engine/internal/alerting"
	"github.com/platformkit/scaling-engine/internal/executor"
	"github.com/platformkit/scaling-engine/internal/threshold"
	"github.com/platformkit/scaling-engine/pkg/database/queries"
)

type ScalingHandler struct {
	recordRepo *queries.ScalingRecordRepository
	exec       *executor.Executor
	alerts     *alerting.Manager
	registry   *threshold.Registry
}

func NewScalingHandler(
	recordRepo *queries.ScalingRecordRepository,
	exec *executor.Executor,
	alerts *alerting.Manager,
	registry *threshold.Registry,
) *ScalingHandler {
	return &ScalingHandler{
		recordRepo: recordRepo,
		exec:       exec,
		alerts:     alerts,
		registry:   registry,
	}
}

// History serves the archived scaling records for a resource
func (h *ScalingHandler) History(c *gin.Context) {
	if h.recordRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is disabled"})
		return
	}

	resourceID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	to := time.Now()
	from := to.Add(-24 * time.Hour)
	if v := c.Query("from"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			from = parsed
		}
	}
	if v := c.Query("to"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			to = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	records, err := h.recordRepo.GetByResource(ctx, resourceID, from, to, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scaling history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Status reports the engine's live state
func (h *ScalingHandler) Status(c *gin.Context) {
	resources := h.registry.Resources()

	inFlight := make([]string, 0)
	for _, resourceID := range resources {
		if h.exec.InFlight(resourceID) {
			inFlight = append(inFlight, resourceID)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"resources":     len(resources),
		"thresholds":    len(h.registry.List()),
		"active_alerts": len(h.alerts.ActiveAlerts()),
		"in_flight":     inFlight,
		"timestamp":     time.Now(),
	})
}
