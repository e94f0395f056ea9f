package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/habitloop/habitloop-backend/internal/service"
	"github.com/habitloop/habitloop-backend/internal/types"
)

type MetricsHandler struct {
	metricsService service.IMetricsService
}

func NewMetricsHandler(metricsService service.IMetricsService) *MetricsHandler {
	return &MetricsHandler{
		metricsService: metricsService,
	}
}

func (h *MetricsHandler) RegisterRoutes(router *gin.RouterGroup) {
	metrics := router.Group("/metrics")
	{
		metrics.GET("/today", h.MetricsToday)
		metrics.POST("/acknowledge", h.Acknowledge)
	}
}

func (h *MetricsHandler) MetricsToday(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	today, err := h.metricsService.MetricsToday(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bmi":             today.Snapshot.BMI,
		"bmr":             today.Snapshot.BMR,
		"tdee":            today.Snapshot.TDEE,
		"computed_at":     today.Snapshot.ComputedAt,
		"version":         today.Snapshot.Version,
		"explanations":    today.Explanations,
		"acknowledged":    today.Acknowledged,
		"acknowledgement": today.Acknowledgment,
	})
}

func (h *MetricsHandler) Acknowledge(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.AcknowledgeMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ack, err := h.metricsService.Acknowledge(c.Request.Context(), userID.(uuid.UUID), req.Version, req.MetricsComputedAt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"acknowledged_at": ack.AcknowledgedAt,
	})
}
