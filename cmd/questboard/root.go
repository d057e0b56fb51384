package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/questboard/internal/airtable"
	"github.com/hyperengineering/questboard/internal/api"
	"github.com/hyperengineering/questboard/internal/config"
	"github.com/hyperengineering/questboard/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "questboard",
	Short:         "Quest Board - gamified daily checklist and its Airtable proxy",
	Long:          "Without a subcommand, runs the proxy server. Use board and player to work the checklist.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(playerCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("configuration loaded")
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)
	if !cfg.Airtable.Configured() {
		slog.Warn("airtable credentials missing; record endpoints will answer 500")
	}

	// 4. Initialize record API client
	records := airtable.NewClient(airtable.Config{
		BaseURL: cfg.Airtable.APIURL,
		Token:   cfg.Airtable.Token,
		BaseID:  cfg.Airtable.BaseID,
		Timeout: time.Duration(cfg.Airtable.Timeout),
	})
	slog.Info("airtable client initialized", "base_id", cfg.Airtable.BaseID)

	// 5. Initialize HTTP router
	limiter := api.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.Window))
	handler := api.NewHandler(records, cfg.Airtable, limiter, Version)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// 6. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 7. Workers
	var wg sync.WaitGroup
	sweeper := worker.NewRateLimitSweeper(limiter, time.Duration(cfg.RateLimit.SweepInterval))
	startWorker(ctx, &wg, "rate-limit-sweeper", sweeper.Run)

	// 8. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 9. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 10. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	wg.Wait()

	slog.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
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

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
