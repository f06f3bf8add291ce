package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/prodscrape/api"
	"github.com/use-agent/prodscrape/api/middleware"
	"github.com/use-agent/prodscrape/config"
	"github.com/use-agent/prodscrape/engine"
	"github.com/use-agent/prodscrape/extractor"
	"github.com/use-agent/prodscrape/freshness"
	"github.com/use-agent/prodscrape/store"
	"github.com/use-agent/prodscrape/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("prodscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"staleAfter", cfg.Freshness.StaleAfter.String(),
	)

	// ── 3. Open the record store ────────────────────────────────────
	st, err := openStore(cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("store ready", "backend", st.Name())

	// ── 4. Fetch engine, extractor and freshness gate ──────────────
	fetcher := engine.NewHTTPEngine(cfg.Fetch.UserAgent)
	defer fetcher.CloseIdleConnections()

	opts := freshness.Options{
		StaleAfter:   cfg.Freshness.StaleAfter,
		FetchTimeout: cfg.Fetch.Timeout,
	}
	if n := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret); n != nil {
		opts.Notifier = n
		slog.Info("webhook notifications enabled", "url", cfg.Webhook.URL)
	}
	resolver := freshness.New(fetcher, extractor.New(), st, opts)

	// ── 5. Setup router ─────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer limiter.Stop()

	router := api.NewRouter(cfg, api.Deps{
		Products:    resolver,
		Store:       st,
		RateLimiter: limiter,
		StartTime:   time.Now(),
	})

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("prodscrape stopped")
}

// openStore selects PostgreSQL when a DSN is configured and the in-memory
// store otherwise.
func openStore(cfg config.DatabaseConfig) (store.Store, error) {
	if cfg.URL == "" {
		return store.NewMemoryStore(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return store.OpenPostgres(ctx, cfg.URL, cfg.MaxConns)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
