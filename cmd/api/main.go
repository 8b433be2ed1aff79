package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"resume-review/internal/bootstrap"
	"resume-review/internal/shared/config"
	"resume-review/internal/shared/server"
	"resume-review/internal/shared/telemetry"
	"resume-review/internal/shared/tracing"
)

const (
	shutdownTimeout  = 30 * time.Second
	runSweepInterval = time.Minute
)

func main() {
	if err := run(); err != nil {
		telemetry.Error("api.exit", map[string]any{"error": err.Error()})
		telemetry.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := telemetry.Configure(cfg.LogFormat, cfg.LogLevel); err != nil {
		return err
	}
	defer telemetry.Sync()

	shutdownTracing, err := tracing.Setup(cfg.TracingEnabled, "resume-review-api")
	if err != nil {
		return err
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		telemetry.Info("api.listen", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		app.Runner.Sweep(gCtx, runSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		telemetry.Info("api.shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		errs = append(errs, srv.Shutdown(shutdownCtx))
		if err := app.Runner.Wait(shutdownCtx); err != nil {
			telemetry.Warn("api.runs_abandoned", map[string]any{"error": err.Error()})
		}
		errs = append(errs, shutdownTracing(shutdownCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}
