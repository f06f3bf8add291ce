package models

// Submission statuses reported by POST /api/scrape and POST /api/refetch/:id.
const (
	StatusCached = "cached"
	StatusOK     = "ok"
)

// SubmitResponse is the response for POST /api/scrape and POST /api/refetch/:id.
type SubmitResponse struct {
	// Status is "cached" when the stored record was returned without a
	// fetch, "ok" when the page was fetched and the record rewritten.
	Status string `json:"status"`

	Product *ProductRecord `json:"product"`
}

// ErrorResponse wraps an ErrorDetail for every non-2xx API response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"` // "ok" or "degraded"
	Time    string `json:"time"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Store   string `json:"store"` // backend name, e.g. "memory" or "postgres"
}
