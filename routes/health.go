package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"pdf-research-summarizer/internal/ai"
)

// SetupHealthRoutes registers liveness and readiness endpoints. The client may
// be nil when the server runs without an API key; health then reports the
// misconfiguration instead of pretending to be ready.
func SetupHealthRoutes(router *gin.Engine, client *ai.GeminiClient) {
	healthHandler := func(c *gin.Context) {
		status := "ok"
		httpStatus := http.StatusOK
		svcs := gin.H{"server": "ok"}

		switch {
		case client == nil:
			status = "misconfigured"
			httpStatus = http.StatusServiceUnavailable
			svcs["gemini"] = "missing API key"
		case client.BreakerState() == gobreaker.StateOpen:
			status = "degraded"
			svcs["gemini"] = "circuit breaker open"
		default:
			svcs["gemini"] = "ok"
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"services":  svcs,
			"timestamp": time.Now().UTC(),
		})
	}
	router.GET("/health", healthHandler)
	router.GET("/api/health", healthHandler)

	router.GET("/ready", func(c *gin.Context) {
		if client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ready": true})
	})
}
