package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/use-agent/prodscrape/models"
)

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{Error: scrapeErr.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeFetchFailed:
		return http.StatusBadRequest // 400, the submitted page could not be fetched
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}

func invalidInput(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: message},
	})
}

// bindingMessage turns a request binding failure into a client-facing
// message. An empty body counts as a missing url.
func bindingMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "url is required"
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "url":
			return field + " is malformed"
		}
		return field + " failed validation: " + fe.Tag()
	}
	return "invalid request body: " + err.Error()
}
