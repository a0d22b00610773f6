package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/shelfwise/shelfwise/internal/app"
	"github.com/shelfwise/shelfwise/internal/inventory"
	"github.com/shelfwise/shelfwise/internal/platform/db"
	"github.com/shelfwise/shelfwise/internal/reports"
	"github.com/shelfwise/shelfwise/jobs"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("failed to connect to postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	handlers := &jobs.Handlers{
		Inventory:  inventory.NewPGRepository(pool),
		Reports:    reports.NewPGRepository(pool),
		Logger:     logger,
		ExpiryDays: cfg.ExpiryScanDays,
		SyncURL:    cfg.LedgerSyncURL,
		SyncBatch:  cfg.LedgerSyncBatch,
	}

	server, mux := jobs.NewServer(cfg.RedisAddr, handlers, logger)
	scheduler, err := jobs.NewScheduler(cfg.RedisAddr, logger)
	if err != nil {
		logger.Error("failed to build scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("worker starting")
		return server.Run(mux)
	})
	g.Go(func() error {
		logger.Info("scheduler starting")
		return scheduler.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		scheduler.Shutdown()
		server.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("worker failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
