package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/omarbakri/familysouq-backend/api/routes"
	"github.com/omarbakri/familysouq-backend/internal/cart"
	"github.com/omarbakri/familysouq-backend/internal/catalog"
	"github.com/omarbakri/familysouq-backend/internal/checkout"
	"github.com/omarbakri/familysouq-backend/internal/inventory"
	"github.com/omarbakri/familysouq-backend/internal/orders"
	"github.com/omarbakri/familysouq-backend/internal/users"
	"github.com/omarbakri/familysouq-backend/pkg/config"
	"github.com/omarbakri/familysouq-backend/pkg/db"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
	"github.com/omarbakri/familysouq-backend/pkg/metrics"
	"github.com/omarbakri/familysouq-backend/pkg/migrate"
	"github.com/omarbakri/familysouq-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	checkoutRepo := checkout.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	stock := inventory.NewManager()

	catalogService, err := catalog.NewService(catalogRepo, usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(dbClient, cartRepo, usersRepo, catalogRepo, stock, checkoutRepo, cfg.Checkout, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(dbClient, ordersRepo, stock, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisPinger:     redisClient,
			Idempotency:     redisClient,
			HTTPMetrics:     httpMetrics,
			MetricsGatherer: registry,
			CatalogService:  catalogService,
			CartService:     cartService,
			CheckoutService: checkoutService,
			OrdersService:   ordersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
