package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/jobseek/internal/config"
	"github.com/fadilmartias/jobseek/internal/scheduler"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func bootstrapCommand(c *cli.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := validateConfig(); err != nil {
		return err
	}
	db, err := openStore(c.Context, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	logger.Info("schema ready", zap.Int("dimension", config.LoadEmbeddingConfig().Dimension))
	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp, err := setup(ctx)
	if err != nil {
		return err
	}
	defer comp.close()

	report, err := comp.ingest.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	comp.logger.Info("ingest finished",
		zap.Int("boards_ok", report.BoardsOK), zap.Int("boards_failed", report.BoardsFailed),
		zap.Int("upserted", report.Upserted), zap.Int64("deactivated", report.Deactivated),
		zap.Int("embedded", report.Embedded), zap.Bool("embed_skipped", report.EmbedSkipped))
	return nil
}

func embedCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp, err := setup(ctx)
	if err != nil {
		return err
	}
	defer comp.close()

	n, err := comp.backfill.RunExclusive(ctx)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	comp.logger.Info("embed finished", zap.Int("embedded", n))
	return nil
}

func apiCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp, err := setup(ctx)
	if err != nil {
		return err
	}
	defer comp.close()
	logger := comp.logger

	appConfig := config.LoadAppConfig()
	port := appConfig.Port
	if p := c.String("port"); p != "" {
		port = p
	}

	app := newFiberApp(appConfig, logger, readinessProbe(comp))
	registerRoutes(app, comp, appConfig)

	scrapeCfg := config.LoadScraperConfig()
	if scrapeCfg.Interval > 0 && !c.Bool("no-scheduler") {
		sched, err := scheduler.New(comp.ingest, scrapeCfg.Interval, logger)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logger.Debug("runtime stats", zap.Int("goroutines", runtime.NumGoroutine()))
			case <-ctx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", port))
		errCh <- app.Listen(port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// setup builds the logger and components and loads the embedding model, so a
// model that cannot load stops the command before any work starts.
func setup(ctx context.Context) (*components, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	comp, err := buildComponents(ctx, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	if err := comp.embedder.Warmup(ctx); err != nil {
		comp.close()
		return nil, err
	}
	return comp, nil
}
