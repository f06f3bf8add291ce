package models

// ScrapeRequest is the payload for POST /api/scrape.
type ScrapeRequest struct {
	// URL is the product page to scrape. Required.
	URL string `json:"url" binding:"required,url"`

	// Force skips the freshness check and always re-fetches the page.
	Force bool `json:"force,omitempty"`
}
