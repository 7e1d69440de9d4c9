package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformkit/scaling-engine/internal/advisor"
	"github.com/platformkit/scaling-engine/internal/logger"
	"github.com/platformkit/scaling-engine/pkg/database/queries"
)

type RecommendationHandler struct {
	store   *advisor.Store
	recRepo *queries.RecommendationRepository
}

func NewRecommendationHandler(store *advisor.Store, recRepo *queries.RecommendationRepository) *RecommendationHandler {
	return &RecommendationHandler{
		store:   store,
		recRepo: recRepo,
	}
}

func (h *RecommendationHandler) List(c *gin.Context) {
	if resourceID := c.Query("resource_id"); resourceID != "" {
		c.JSON(http.StatusOK, gin.H{"recommendations": h.store.ListByResource(resourceID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": h.store.List()})
}

func (h *RecommendationHandler) Get(c *gin.Context) {
	rec, err := h.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// Feedback marks a recommendation implemented with operator feedback
func (h *RecommendationHandler) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")
	rec, err := h.store.MarkImplemented(id, req.Feedback)
	if err != nil {
		if errors.Is(err, advisor.ErrRecommendationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.recRepo != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := h.recRepo.MarkImplemented(ctx, id, req.Feedback); err != nil {
			logger.Errorf("Failed to persist recommendation feedback: %v", err)
		}
	}

	c.JSON(http.StatusOK, rec)
}
