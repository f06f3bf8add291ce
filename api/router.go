package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/prodscrape/api/handler"
	"github.com/use-agent/prodscrape/api/middleware"
	"github.com/use-agent/prodscrape/config"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Products    handler.ProductService
	Store       handler.Pinger
	RateLimiter *middleware.RateLimiter
	StartTime   time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if enabled) → RateLimit
//
// /api/health stays outside auth.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	api := r.Group("/api")

	// Health has no auth.
	api.GET("/health", handler.Health(deps.Store, deps.StartTime))

	// Protected group: auth, then rate limit.
	protected := api.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	if deps.RateLimiter != nil {
		protected.Use(deps.RateLimiter.Middleware())
	}

	protected.POST("/scrape", handler.Scrape(deps.Products))
	protected.POST("/refetch/:id", handler.Refetch(deps.Products))
	protected.GET("/products", handler.ListProducts(deps.Products))
	protected.GET("/products/:id", handler.GetProduct(deps.Products))

	return r
}
