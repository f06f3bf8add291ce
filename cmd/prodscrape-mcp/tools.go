package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// product mirrors the API product record.
type product struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Contact     string `json:"contact"`
	Size        string `json:"size"`
	Category    string `json:"category"`
	UpdatedAt   string `json:"updated_at"`
}

// submitResponse mirrors the scrape and refetch API responses.
type submitResponse struct {
	Status  string   `json:"status"`
	Product *product `json:"product"`
}

type apiError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// do sends a request to the API and decodes a 200 body into out. Any other
// status is returned as an error carrying the API error code.
func (c *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e apiError
		if json.Unmarshal(respBody, &e) == nil && e.Error != nil {
			return fmt.Errorf("[%s] %s", e.Error.Code, e.Error.Message)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func handleScrapeProduct(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		u, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		payload := map[string]any{
			"url":   u,
			"force": request.GetBool("force", false),
		}

		var resp submitResponse
		if err := c.do(ctx, http.MethodPost, "/api/scrape", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatSubmit(&resp)), nil
	}
}

func handleRefetchProduct(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetInt("id", 0)
		if id <= 0 {
			return mcp.NewToolResultError("id is required and must be a positive integer"), nil
		}

		var resp submitResponse
		if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/refetch/%d", id), nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatSubmit(&resp)), nil
	}
}

func handleListProducts(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := "/api/products"
		if q := request.GetString("query", ""); q != "" {
			path += "?q=" + url.QueryEscape(q)
		}

		var list []product
		if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatList(list)), nil
	}
}

func formatSubmit(resp *submitResponse) string {
	if resp.Product == nil {
		return "Status: " + resp.Status
	}
	return fmt.Sprintf("Status: %s\n%s", resp.Status, formatProduct(resp.Product))
}

func formatProduct(p *product) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID: %d\nURL: %s\n", p.ID, p.URL)
	for _, f := range []struct{ label, value string }{
		{"Title", p.Title},
		{"Description", p.Description},
		{"Price", p.Price},
		{"Contact", p.Contact},
		{"Size", p.Size},
		{"Category", p.Category},
		{"Updated", p.UpdatedAt},
	} {
		if f.value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", f.label, f.value)
		}
	}
	return sb.String()
}

func formatList(list []product) string {
	if len(list) == 0 {
		return "No products found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d products:\n\n", len(list))
	for i := range list {
		sb.WriteString(formatProduct(&list[i]))
		sb.WriteString("\n")
	}
	return sb.String()
}
