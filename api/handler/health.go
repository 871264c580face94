package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/linkguard/models"
)

// StatsProvider reports the browser pool's state. Implemented by
// driver.Browser; nil when the service runs on the HTTP driver.
type StatsProvider interface {
	Stats() models.BrowserStats
}

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are active.
func Health(stats StatsProvider, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bs models.BrowserStats
		if stats != nil {
			bs = stats.Stats()
		}

		status := "healthy"
		if bs.MaxPages > 0 && bs.ActivePages > int(float64(bs.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			BrowserStats: bs,
			Version:      "0.1.0",
		})
	}
}
