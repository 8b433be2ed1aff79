package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-review/internal/shared/metrics"
	"resume-review/internal/shared/telemetry"
)

// Logging emits a structured log and a request counter per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.ObserveRequest(c.Request.Method, c.FullPath(), status)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get(isGuestKey)
		runID, _ := c.Get("runId")
		reviewID, _ := c.Get("reviewId")

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"run_id":      runID,
			"review_id":   reviewID,
			"is_guest":    isGuest,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
