package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformkit/scaling-engine/internal/threshold"
	"github.com/platformkit/scaling-engine/pkg/models"
)

type ThresholdHandler struct {
	registry *threshold.Registry
}

func NewThresholdHandler(registry *threshold.Registry) *ThresholdHandler {
	return &ThresholdHandler{registry: registry}
}

func (h *ThresholdHandler) List(c *gin.Context) {
	if resourceID := c.Query("resource_id"); resourceID != "" {
		c.JSON(http.StatusOK, gin.H{"thresholds": h.registry.ListByResource(resourceID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"thresholds": h.registry.List()})
}

func (h *ThresholdHandler) Get(c *gin.Context) {
	t, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "threshold not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *ThresholdHandler) Create(c *gin.Context) {
	var t models.ScalingThreshold
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.registry.Create(&t)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ThresholdHandler) Update(c *gin.Context) {
	var t models.ScalingThreshold
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	t.ID = c.Param("id")

	updated, err := h.registry.Update(&t)
	if err != nil {
		if errors.Is(err, threshold.ErrThresholdNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "threshold not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}
