package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/habitloop/habitloop-backend/internal/service"
	"github.com/habitloop/habitloop-backend/internal/types"
)

type PlanHandler struct {
	planService service.IPlanService
}

func NewPlanHandler(planService service.IPlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

func (h *PlanHandler) RegisterRoutes(router *gin.RouterGroup, rateLimit gin.HandlerFunc) {
	plans := router.Group("/plans")
	{
		if rateLimit != nil {
			plans.POST("/generate", rateLimit, h.GeneratePlan)
		} else {
			plans.POST("/generate", h.GeneratePlan)
		}
	}
}

// GeneratePlan returns 200 with the existing plan when a fresh one is found
// and 201 when a new plan row was created.
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.GeneratePlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.planService.GeneratePlan(c.Request.Context(), userID.(uuid.UUID), req.ForceRecompute)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}
