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

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/internal/app"
	"github.com/shelfwise/shelfwise/internal/auth"
	"github.com/shelfwise/shelfwise/internal/business"
	"github.com/shelfwise/shelfwise/internal/catalog"
	"github.com/shelfwise/shelfwise/internal/inventory"
	"github.com/shelfwise/shelfwise/internal/observability"
	"github.com/shelfwise/shelfwise/internal/platform/cache"
	"github.com/shelfwise/shelfwise/internal/platform/db"
	"github.com/shelfwise/shelfwise/internal/reports"
	"github.com/shelfwise/shelfwise/internal/shared"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	sessions := shared.NewSessionManager(redisClient, "shelfwise_session", cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewPGRepository(pool))
	businessService := business.NewService(business.NewPGRepository(pool))
	catalogService := catalog.NewService(catalog.NewPGRepository(pool))

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	inventoryRepo := inventory.NewPGRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, reportCache, metrics, logger)
	aggregator := inventory.NewAggregator(inventoryRepo)

	reportsService := reports.NewService(
		reports.NewPGRepository(pool), businessService, reportCache, cfg.ExpiryScanDays, logger)

	router := app.NewRouter(app.RouterConfig{
		Middleware: app.MiddlewareConfig{
			Logger:         logger,
			Config:         cfg,
			SessionManager: sessions,
			Metrics:        metrics,
		},
		AuthService: authService,
		AuthHandler: auth.NewHandler(authService, sessions, logger),
		InventoryHandler: inventory.NewHandler(inventoryService, &scopeResolver{
			catalog:  catalogService,
			business: businessService,
		}, logger),
		BusinessHandler: business.NewHandler(businessService),
		CatalogHandler:  catalog.NewHandler(catalogService, aggregator),
		ReportsHandler:  reports.NewHandler(reportsService),
		Pool:            pool,
		Redis:           redisClient,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("http server failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

// scopeResolver adapts the catalog and business services to the inventory
// handler's scope checks.
type scopeResolver struct {
	catalog  *catalog.Service
	business *business.Service
}

func (s *scopeResolver) ProductInScope(ctx context.Context, businessID, productID uuid.UUID) error {
	_, err := s.catalog.GetProduct(ctx, businessID, productID)
	return err
}

func (s *scopeResolver) LocationInScope(ctx context.Context, businessID, locationID uuid.UUID) error {
	_, err := s.business.GetLocation(ctx, businessID, locationID)
	return err
}

func (s *scopeResolver) DefaultLocation(ctx context.Context, businessID uuid.UUID) (uuid.UUID, error) {
	loc, err := s.business.DefaultLocation(ctx, businessID)
	if err != nil {
		return uuid.Nil, err
	}
	return loc.ID, nil
}
