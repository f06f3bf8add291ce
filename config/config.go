package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Freshness FreshnessConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls outbound page fetches.
type FetchConfig struct {
	// Timeout bounds a single page fetch, including the body read.
	Timeout time.Duration // default: 12s

	// UserAgent overrides the browser User-Agent sent to origin servers.
	UserAgent string
}

// FreshnessConfig controls when stored records are re-fetched.
type FreshnessConfig struct {
	// StaleAfter is the age beyond which a stored record is fetched again.
	StaleAfter time.Duration // default: 168h
}

// DatabaseConfig selects the record store.
type DatabaseConfig struct {
	// URL is a PostgreSQL connection string. Empty selects the in-memory store.
	URL string

	// MaxConns caps the connection pool. 0 keeps the pgxpool default.
	MaxConns int
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of inbound API calls.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key or client IP.
	Burst int // default: 10
}

// CORSConfig controls cross-origin access for browser frontends.
type CORSConfig struct {
	// AllowedOrigins lists permitted origins. A trailing "*" matches any
	// suffix. default: ["*"]
	AllowedOrigins []string
}

// WebhookConfig controls product.updated notifications.
type WebhookConfig struct {
	// URL receives a POST after every successful fetch. Empty disables.
	URL string

	// Secret signs the payload with HMAC-SHA256 when set.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PRODSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("PRODSCRAPE_PORT", 5000),
			Mode: envOr("PRODSCRAPE_MODE", "release"),
		},
		Fetch: FetchConfig{
			Timeout:   envDurationOr("PRODSCRAPE_FETCH_TIMEOUT", 12*time.Second),
			UserAgent: os.Getenv("PRODSCRAPE_USER_AGENT"),
		},
		Freshness: FreshnessConfig{
			StaleAfter: envDurationOr("PRODSCRAPE_STALE_AFTER", 7*24*time.Hour),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("PRODSCRAPE_DATABASE_URL"),
			MaxConns: envIntOr("PRODSCRAPE_DB_MAX_CONNS", 0),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRODSCRAPE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PRODSCRAPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRODSCRAPE_RATE_RPS", 5.0),
			Burst:             envIntOr("PRODSCRAPE_RATE_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: envSliceOr("PRODSCRAPE_ALLOWED_ORIGINS", []string{"*"}),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("PRODSCRAPE_WEBHOOK_URL"),
			Secret: os.Getenv("PRODSCRAPE_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("PRODSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("PRODSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
