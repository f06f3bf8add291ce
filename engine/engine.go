package engine

import (
	"context"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http").
	Name() string

	// Fetch retrieves the page for the given request. It returns an error
	// only when no response was obtained (dial, TLS, timeout, body read).
	// Non-2xx responses are reported through FetchResult.StatusCode.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResult is the output of a fetch that produced an HTTP response.
type FetchResult struct {
	HTML        string
	StatusCode  int
	ContentType string
	FinalURL    string
	EngineName  string
}
