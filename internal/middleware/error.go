package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler is the outermost error boundary: it recovers panics, logs the
// internal detail, and returns a generic JSON 500 so nothing internal leaks
// to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
		}()
		c.Next()

		// Errors attached by handlers that never wrote a response.
		if len(c.Errors) > 0 && !c.Writer.Written() {
			log.Printf("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, c.Errors.Last().Err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		}
	}
}
