package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shelfwise/shelfwise/internal/auth"
	"github.com/shelfwise/shelfwise/internal/business"
	"github.com/shelfwise/shelfwise/internal/catalog"
	"github.com/shelfwise/shelfwise/internal/inventory"
	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/reports"
)

// RouterConfig aggregates everything the HTTP router needs.
type RouterConfig struct {
	Middleware MiddlewareConfig

	AuthService      *auth.Service
	AuthHandler      *auth.Handler
	InventoryHandler *inventory.Handler
	BusinessHandler  *business.Handler
	CatalogHandler   *catalog.Handler
	ReportsHandler   *reports.Handler

	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// NewRouter assembles the full route tree. Auth register/login, health and
// metrics are public; everything else sits behind RequireAuth.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	for _, m := range MiddlewareStack(cfg.Middleware) {
		r.Use(m)
	}

	r.Get("/healthz", healthz(cfg.Pool, cfg.Redis))
	if cfg.Middleware.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Middleware.Metrics.Handler())
	}
	cfg.AuthHandler.MountPublicRoutes(r)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireAuth(cfg.AuthService))
		cfg.AuthHandler.MountProtectedRoutes(pr)
		cfg.InventoryHandler.MountRoutes(pr)
		cfg.BusinessHandler.MountRoutes(pr)
		cfg.CatalogHandler.MountRoutes(pr)
		cfg.ReportsHandler.MountRoutes(pr)
	})

	return r
}

func healthz(pool *pgxpool.Pool, client *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Unhealthy", "database unreachable")
				return
			}
		}
		if client != nil {
			if err := client.Ping(ctx).Err(); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Unhealthy", "redis unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
