package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/prodscrape/models"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/health.
//
// Status is "degraded" when the store does not answer a ping within 2s.
func Health(store Pinger, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Time:    time.Now().UTC().Format(time.RFC3339),
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
			Store:   store.Name(),
		})
	}
}
