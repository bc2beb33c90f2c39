// CLAUDE:SUMMARY CLI entry point for legiswatch — one-shot tracking runs and dashboard serve mode.
// Command legiswatch tracks legislature bill status changes.
//
// Usage:
//
//	legiswatch -config config.yaml                  # one tracking run, then exit
//	legiswatch -config config.yaml -serve :8080     # serve the dashboard
//	legiswatch -config config.yaml -serve :8080 -interval 6h  # serve and run periodically
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/legiswatch/dashboard"
	"github.com/hazyhaar/legiswatch/runlog"
	"github.com/hazyhaar/legiswatch/tracker"
	"github.com/hazyhaar/legiswatch/watch"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	serveAddr := flag.String("serve", "", "serve the dashboard on this address instead of exiting")
	interval := flag.Duration("interval", 0, "run the tracker periodically while serving (0 = never)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *serveAddr, *interval); err != nil {
		logger.Error("legiswatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, serveAddr string, interval time.Duration) error {
	cfg, err := tracker.LoadConfig(configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	history, err := runlog.Open(filepath.Join(cfg.DataDir, "runs.db"))
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer history.Close()

	tr := tracker.New(cfg, logger,
		tracker.WithRecorder(history),
		tracker.WithSinks(
			tracker.NewStdoutSink(nil),
			tracker.NewDashboardSink(cfg.DocsDir),
		),
	)
	defer tr.Close()

	if serveAddr == "" {
		_, err := tr.Run(ctx)
		return err
	}
	return serve(ctx, logger, serveAddr, interval, tr, history)
}

// serve runs the dashboard server. A watcher on the run-history database
// refreshes the served view when any process (this one or a cron-driven
// one-shot) completes a run.
func serve(ctx context.Context, logger *slog.Logger, addr string, interval time.Duration, tr *tracker.Tracker, history *runlog.Store) error {
	srv := dashboard.NewServer(tr, logger, dashboard.WithHistory(history))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	w := watch.New(history.DB(), watch.Options{
		Interval: time.Second,
		Debounce: 500 * time.Millisecond,
		Logger:   logger,
	})
	go w.OnChange(ctx, tr.Refresh)

	if interval > 0 {
		go runPeriodically(ctx, logger, tr, interval)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("legiswatch: serving dashboard", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func runPeriodically(ctx context.Context, logger *slog.Logger, tr *tracker.Tracker, interval time.Duration) {
	// First run immediately so the dashboard has data, then on the ticker.
	if _, err := tr.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("legiswatch: scheduled run failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := tr.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("legiswatch: scheduled run failed", "error", err)
			}
		}
	}
}
