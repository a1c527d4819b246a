package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"trustscore/internal/platform/config"
	"trustscore/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

// main loads configuration, wires dependencies and runs the HTTP server next
// to the background workers until a signal arrives. Business logic lives in
// internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("trustscore stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("trustscore stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing trustscore",
		"addr", cfg.Addr,
		"env", cfg.Environment,
		"postgres", cfg.Database.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Brokers != "",
		"remote_signer", cfg.Signer.URL != "",
	)

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	for _, w := range app.workers {
		g.Go(func() error {
			if err := w.run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("worker stopped", "worker", w.name, "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
