package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitloop/habitloop-backend/internal/service"
)

// respondError maps domain errors onto HTTP statuses. Domain errors keep
// their specific message; anything unexpected is logged and surfaced as a
// generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSettingsNotFound),
		errors.Is(err, service.ErrSnapshotNotFound),
		errors.Is(err, service.ErrMetricsUnavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOnboardingIncomplete),
		errors.Is(err, service.ErrMetricsUnacknowledged),
		errors.Is(err, service.ErrMissingProfileFields),
		errors.Is(err, service.ErrInvalidProfileValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
