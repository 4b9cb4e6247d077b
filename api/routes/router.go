package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/photocard-store/api/controllers"
	"github.com/angelmondragon/photocard-store/api/middleware"
	"github.com/angelmondragon/photocard-store/api/responses"
	"github.com/angelmondragon/photocard-store/internal/auth"
	"github.com/angelmondragon/photocard-store/internal/catalog"
	"github.com/angelmondragon/photocard-store/internal/orders"
	"github.com/angelmondragon/photocard-store/pkg/auth/session"
	"github.com/angelmondragon/photocard-store/pkg/config"
	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
	"github.com/angelmondragon/photocard-store/pkg/metrics"
	pkgredis "github.com/angelmondragon/photocard-store/pkg/redis"
)

// Deps is everything the HTTP surface needs. Sessions, RateLimiter and
// Idempotency are nil when Redis is not configured; leave them as untyped
// nil, not as a nil *redis.Client.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Catalog     catalog.Service
	Orders      orders.Service
	Auth        *auth.Service
	Sessions    session.AccessSessionChecker
	RateLimiter middleware.RateLimiterStore
	Idempotency pkgredis.IdempotencyStore
	ReadyChecks map[string]controllers.Pinger
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "Route not found"))
	})

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
	requireAuth := middleware.Auth(d.Auth, d.Sessions, logg)
	requireAdmin := middleware.RequireRole(enums.UserRoleAdmin, logg)

	r.Get("/", controllers.Root(cfg))
	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.HealthLive())
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, d.ReadyChecks))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, d.RateLimiter, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.With(requireAuth).Get("/me", controllers.AuthMe(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, d.RateLimiter, logg)).Post("/create-admin", controllers.AuthCreateAdmin(d.Auth, logg))
		r.Get("/google", controllers.AuthGoogle(d.Auth, logg))
		r.Get("/google/callback", controllers.AuthGoogleCallback(d.Auth, cfg.App.FrontendURL, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", controllers.HealthInfo(cfg))
		r.Get("/menu", controllers.CatalogList(d.Catalog, enums.ItemKindCard, logg))
		r.Get("/photocards/{id}", controllers.CatalogGet(d.Catalog, enums.ItemKindCard, logg))
		r.Get("/prints", controllers.CatalogList(d.Catalog, enums.ItemKindPrint, logg))
		r.Get("/prints/{id}", controllers.CatalogGet(d.Catalog, enums.ItemKindPrint, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(middleware.Idempotency(d.Idempotency, cfg.Orders.IdempotencyTTL, logg)).Post("/", controllers.OrderCreate(d.Orders, logg))
			r.Get("/my-orders", controllers.OrderListMine(d.Orders, logg))
			r.With(requireAdmin).Get("/all", controllers.OrderListAll(d.Orders, logg))
			r.Get("/{id}", controllers.OrderGet(d.Orders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			mountAdminCatalog(r, "/photocards", d.Catalog, enums.ItemKindCard, logg)
			mountAdminCatalog(r, "/prints", d.Catalog, enums.ItemKindPrint, logg)
		})
	})

	return r
}

func mountAdminCatalog(r chi.Router, prefix string, svc catalog.Service, kind enums.ItemKind, logg *logger.Logger) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", controllers.AdminCatalogList(svc, kind, logg))
		r.Post("/", controllers.AdminCatalogCreate(svc, kind, logg))
		r.Put("/{id}", controllers.AdminCatalogUpdate(svc, kind, logg))
		r.Delete("/{id}", controllers.AdminCatalogDelete(svc, kind, logg))
	})
}
