package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformkit/scaling-engine/api/middleware"
	"github.com/platformkit/scaling-engine/internal/alerting"
	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/database/queries"
)

type AlertHandler struct {
	manager   *alerting.Manager
	alertRepo *queries.AlertRepository
}

func NewAlertHandler(manager *alerting.Manager, alertRepo *queries.AlertRepository) *AlertHandler {
	return &AlertHandler{
		manager:   manager,
		alertRepo: alertRepo,
	}
}

func (h *AlertHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.manager.ActiveAlerts()})
}

func (h *AlertHandler) Get(c *gin.Context) {
	alert, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, alert)
}

// History serves archived alerts for a resource from Postgres
func (h *AlertHandler) History(c *gin.Context) {
	if h.alertRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is disabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	alerts, err := h.alertRepo.GetByResource(ctx, c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load alert history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *AlertHandler) Acknowledge(c *gin.Context) {
	h.transition(c, h.manager.Acknowledge)
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	h.transition(c, h.manager.Resolve)
}

func (h *AlertHandler) Suppress(c *gin.Context) {
	h.transition(c, h.manager.Suppress)
}

func (h *AlertHandler) Cancel(c *gin.Context) {
	h.transition(c, h.manager.Cancel)
}

func (h *AlertHandler) transition(c *gin.Context, fn func(string) error) {
	id := c.Param("id")
	if err := fn(id); err != nil {
		if errors.Is(err, alerting.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.WithAlert(id).Infof("Alert state changed by %s", middleware.GetUsername(c))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
