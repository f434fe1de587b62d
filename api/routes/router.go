package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zerofy/zerofy-backend/api/controllers"
	"github.com/zerofy/zerofy-backend/api/middleware"
	"github.com/zerofy/zerofy-backend/internal/analytics"
	"github.com/zerofy/zerofy-backend/internal/auth"
	"github.com/zerofy/zerofy-backend/internal/cache"
	"github.com/zerofy/zerofy-backend/internal/stores"
	"github.com/zerofy/zerofy-backend/internal/tariffs"
	"github.com/zerofy/zerofy-backend/internal/users"
	"github.com/zerofy/zerofy-backend/internal/warehouse"
	"github.com/zerofy/zerofy-backend/pkg/auth/session"
	"github.com/zerofy/zerofy-backend/pkg/config"
	"github.com/zerofy/zerofy-backend/pkg/db"
	"github.com/zerofy/zerofy-backend/pkg/enums"
	"github.com/zerofy/zerofy-backend/pkg/logger"
	"github.com/zerofy/zerofy-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	AuthService      auth.Service
	UserService      users.Service
	StoreService     stores.Service
	TariffService    tariffs.Service
	AnalyticsService *analytics.Service
	WarehouseService *warehouse.Service
	CacheStore       *cache.Store
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(d.AuthService, cfg.JWT, logg))
	})

	r.Get("/api/v1/tariffs", controllers.TariffList(d.TariffService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Get("/me", controllers.Profile(d.UserService, logg))

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", controllers.Subscribe(d.TariffService, logg))
			r.Get("/current", controllers.CurrentSubscription(d.TariffService, logg))
			r.Delete("/current", controllers.CancelSubscription(d.TariffService, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(d.StoreService, logg))
			r.Post("/", controllers.StoreCreate(d.StoreService, logg))

			r.Route("/{storeId}", func(r chi.Router) {
				r.Get("/", controllers.StoreGet(d.StoreService, logg))
				r.Patch("/", controllers.StoreUpdate(d.StoreService, logg))
				r.Delete("/", controllers.StoreDelete(d.StoreService, logg))

				r.Get("/stats", controllers.StatsGet(d.AnalyticsService, d.StoreService, logg))
				r.Get("/orders", controllers.OrdersGet(d.AnalyticsService, d.StoreService, logg))
				r.Get("/sales", controllers.SalesGet(d.AnalyticsService, d.StoreService, logg))
				r.Get("/balance", controllers.BalanceGet(d.AnalyticsService, d.StoreService, logg))
				r.Get("/ad-spend", controllers.AdSpendGet(d.AnalyticsService, d.StoreService, logg))
				r.Delete("/cache", controllers.StoreCacheClear(d.AnalyticsService, d.StoreService, logg))

				r.Route("/warehouse", func(r chi.Router) {
					r.Get("/warehouses", controllers.WarehousesGet(d.WarehouseService, d.StoreService, logg))
					r.Get("/coefficients", controllers.CoefficientsGet(d.WarehouseService, d.StoreService, logg))
					r.Get("/remains", controllers.RemainsGet(d.WarehouseService, d.StoreService, logg))
					r.Get("/paid-storage", controllers.PaidStorageGet(d.WarehouseService, d.StoreService, logg))
					r.Get("/average-sales", controllers.AverageSalesGet(d.WarehouseService, d.StoreService, logg))
					r.Post("/refresh", controllers.WarehouseRefresh(d.WarehouseService, d.StoreService, logg))
				})
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.MemberRoleAdmin), logg))

		r.Get("/users", controllers.AdminUserList(d.UserService, logg))
		r.Patch("/users/{userId}/active", controllers.AdminUserSetActive(d.UserService, logg))
		r.Post("/tariffs", controllers.AdminTariffCreate(d.TariffService, logg))
		r.Patch("/tariffs/{tariffId}", controllers.AdminTariffUpdate(d.TariffService, logg))
		r.Delete("/cache", controllers.AdminCacheClearAll(d.CacheStore, logg))
	})

	return r
}
