package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/photocard-store/api/controllers"
	"github.com/angelmondragon/photocard-store/api/routes"
	"github.com/angelmondragon/photocard-store/internal/auth"
	"github.com/angelmondragon/photocard-store/internal/catalog"
	"github.com/angelmondragon/photocard-store/internal/orders"
	"github.com/angelmondragon/photocard-store/internal/users"
	"github.com/angelmondragon/photocard-store/pkg/auth/session"
	"github.com/angelmondragon/photocard-store/pkg/config"
	"github.com/angelmondragon/photocard-store/pkg/enums"
	"github.com/angelmondragon/photocard-store/pkg/jsonstore"
	"github.com/angelmondragon/photocard-store/pkg/logger"
	"github.com/angelmondragon/photocard-store/pkg/metrics"
	"github.com/angelmondragon/photocard-store/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dir, err := jsonstore.Open(ctx, cfg.Storage.DataDir, metrics.NewStorageMetrics(reg), logg)
	if err != nil {
		return err
	}

	cards, err := catalog.OpenStore(dir, enums.ItemKindCard)
	if err != nil {
		return err
	}
	prints, err := catalog.OpenStore(dir, enums.ItemKindPrint)
	if err != nil {
		return err
	}
	if cfg.Storage.Seed {
		seeded, err := catalog.SeedSamples(ctx, cards, prints)
		if err != nil {
			return err
		}
		if len(seeded) > 0 {
			logg.Info(logg.WithField(ctx, "kinds", seeded), "catalog seeded with sample data")
		}
	}
	cat, err := catalog.New(cards, prints)
	if err != nil {
		return err
	}

	userStore, err := users.OpenStore(dir)
	if err != nil {
		return err
	}
	if err := userStore.Init(ctx); err != nil {
		return err
	}
	orderStore, err := orders.OpenStore(dir)
	if err != nil {
		return err
	}
	if err := orderStore.Init(ctx); err != nil {
		return err
	}

	deps := routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		ReadyChecks: map[string]controllers.Pinger{"storage": dir},
	}

	authParams := auth.ServiceParams{
		Users:        userStore,
		JWT:          cfg.JWT,
		Password:     cfg.Password,
		BootstrapKey: cfg.Admin.BootstrapKey,
		States:       auth.NewMemoryStateStore(),
		Logger:       logg,
	}
	if cfg.Google.Enabled() {
		authParams.Google = auth.NewGoogleOAuth(cfg.Google)
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		sessions, err := session.NewManager(redisClient, cfg.JWT)
		if err != nil {
			return err
		}
		authParams.Sessions = sessions
		authParams.States = auth.NewRedisStateStore(redisClient)
		deps.Sessions = sessions
		deps.RateLimiter = redisClient
		deps.Idempotency = redisClient
		deps.ReadyChecks["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; sessions, rate limiting and idempotent checkout are disabled")
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Catalog:     cat,
		Logger:      logg,
		StrictReads: cfg.Storage.StrictReads,
	})
	if err != nil {
		return err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Inventory:    cat,
		Orders:       orderStore,
		Logger:       logg,
		Metrics:      metrics.NewOrderMetrics(reg),
		EnforceTotal: cfg.Orders.EnforceTotal,
		StrictReads:  cfg.Storage.StrictReads,
	})
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(authParams)
	if err != nil {
		return err
	}
	deps.Catalog = catalogSvc
	deps.Orders = orderSvc
	deps.Auth = authSvc

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: routes.NewRouter(deps),
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"data_dir": cfg.Storage.DataDir,
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		logg.Info(logCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
