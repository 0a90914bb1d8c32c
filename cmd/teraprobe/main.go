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

	"github.com/use-agent/teraprobe/api"
	"github.com/use-agent/teraprobe/cache"
	"github.com/use-agent/teraprobe/config"
	"github.com/use-agent/teraprobe/extractor"
	"github.com/use-agent/teraprobe/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("teraprobe starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"engine", cfg.Browser.Engine,
		"waitUntil", cfg.Extractor.WaitUntil,
	)
	if cfg.Browser.Engine == "" || cfg.Browser.Engine == "rod" {
		if bin, ok := scraper.DetectBrowser(cfg.Browser.BrowserBin); ok {
			slog.Info("chromium found", "bin", bin)
		} else {
			slog.Warn("no chromium binary found, rod will try to download one on first launch")
		}
	}

	// ── 3. Build the extraction engine ──────────────────────────────
	ex, err := newExtractor(cfg)
	if err != nil {
		slog.Error("failed to initialise extractor", "error", err)
		os.Exit(1)
	}

	// ── 4. Initialise cache ─────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)
	defer cc.Close()

	// ── 5. Setup router ─────────────────────────────────────────────
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	startTime := time.Now()
	router := api.NewRouter(rootCtx, ex, cfg, cc, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
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

	// In-flight extractions hold a browser each; give them their full
	// extraction budget to finish and release.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace(cfg.Extractor))
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("teraprobe stopped", "activeSessions", ex.ActiveSessions())
}

// newExtractor wires launcher → provisioner → locator → extractor.
func newExtractor(cfg *config.Config) (*extractor.Extractor, error) {
	launcher, err := scraper.NewLauncher(cfg.Browser)
	if err != nil {
		return nil, err
	}

	locator, err := extractor.NewLocator(
		extractor.DefaultRules,
		cfg.Extractor.SiteToken,
		extractor.Budget{
			MaxAttempts:  cfg.Extractor.MaxAttempts,
			AttemptDelay: cfg.Extractor.AttemptDelay,
		},
		cfg.Extractor.SettleDelay,
	)
	if err != nil {
		return nil, err
	}

	provisioner := scraper.NewProvisioner(launcher, scraper.MobileIdentity())
	return extractor.New(provisioner, locator, extractor.OptionsFromConfig(cfg.Extractor)), nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// shutdownGrace is how long shutdown waits for in-flight requests: one whole
// extraction plus time to close its browser.
func shutdownGrace(cfg config.ExtractorConfig) time.Duration {
	return cfg.ExtractTimeout + 5*time.Second
}
