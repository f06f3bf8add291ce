package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/prodscrape/models"
)

// Scrape returns a handler for POST /api/scrape.
//
// The stored record is returned with status "cached" while it is fresh
// and force is false. Otherwise the page is fetched, extracted and
// stored, and the new record is returned with status "ok".
func Scrape(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, bindingMessage(err))
			return
		}

		res, err := svc.Resolve(c.Request.Context(), req.URL, req.Force)
		if err != nil {
			slog.Warn("scrape failed", "url", req.URL, "force", req.Force, "error", err)
			respondError(c, err)
			return
		}

		slog.Info("scrape served",
			"url", req.URL,
			"force", req.Force,
			"source", res.Source,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		c.JSON(http.StatusOK, models.SubmitResponse{
			Status:  submitStatus(res.Source),
			Product: res.Record,
		})
	}
}

// Refetch returns a handler for POST /api/refetch/:id. The page is
// always fetched again regardless of the record's age.
func Refetch(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		res, err := svc.Refetch(c.Request.Context(), id)
		if err != nil {
			slog.Warn("refetch failed", "id", id, "error", err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SubmitResponse{
			Status:  models.StatusOK,
			Product: res.Record,
		})
	}
}
