package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/unillm/internal/bootstrap"
	"github.com/nulzo/unillm/internal/cli"
	"github.com/nulzo/unillm/internal/config"
	"github.com/nulzo/unillm/internal/platform/logger"
	"github.com/nulzo/unillm/internal/platform/otel"
	"github.com/nulzo/unillm/internal/server"
	"github.com/nulzo/unillm/internal/version"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfg *config.Config
		err error
	)
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	if cfg.IsProduction() {
		logCfg.Format = "json"
	}
	logger.Initialize(logCfg)
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otel.InitTracer(ctx, server.ServiceName, version.AppVersion, cfg.Tracing.Enabled, log, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Failed to close resources", zap.Error(err))
		}
	}()

	// the ingestor outlives ctx so queued records flush after the signal
	app.Ingestor.Start(context.Background())
	defer app.Ingestor.Stop()

	srv := server.New(cfg, log, server.Deps{
		Catalog:   app.Catalog,
		Analytics: app.Analytics,
		Ingestor:  app.Ingestor,
	})

	sweepDone := make(chan struct{})
	go srv.SweepLimiter(sweepDone, time.Minute)
	defer close(sweepDone)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("%s %s", cli.CheckMark(), cli.Stylize("unillm listening", cli.Green)),
			zap.String("addr", httpServer.Addr),
			zap.String("version", version.AppVersion),
			zap.Int("models", len(app.Catalog.Models())),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	return nil
}
