package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("PRODSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	c := &apiClient{
		baseURL: apiURL,
		apiKey:  os.Getenv("PRODSCRAPE_API_KEY"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}

	s := server.NewMCPServer(
		"prodscrape",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_product",
		mcp.WithDescription("Scrape a product page and return its title, description, price, contact, size and category. A record fetched within the freshness window is returned from the store without contacting the site."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http(s) URL of the product page"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Fetch the page again even if the stored record is fresh (default: false)"),
		),
	)
	s.AddTool(scrapeTool, handleScrapeProduct(c))

	refetchTool := mcp.NewTool("refetch_product",
		mcp.WithDescription("Fetch a stored product's page again and overwrite the record with the newly extracted fields."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("ID of the stored product record"),
		),
	)
	s.AddTool(refetchTool, handleRefetchProduct(c))

	listTool := mcp.NewTool("list_products",
		mcp.WithDescription("List stored product records, most recently updated first."),
		mcp.WithString("query",
			mcp.Description("Case-insensitive filter on title, description and category"),
		),
	)
	s.AddTool(listTool, handleListProducts(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
