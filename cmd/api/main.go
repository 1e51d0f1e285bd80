package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/oneclickretail/oneclick-backend/api/routes"
	"github.com/oneclickretail/oneclick-backend/internal/address"
	"github.com/oneclickretail/oneclick-backend/internal/cart"
	"github.com/oneclickretail/oneclick-backend/internal/catalog"
	"github.com/oneclickretail/oneclick-backend/internal/coupons"
	"github.com/oneclickretail/oneclick-backend/internal/notifications"
	"github.com/oneclickretail/oneclick-backend/internal/orders"
	"github.com/oneclickretail/oneclick-backend/internal/users"
	"github.com/oneclickretail/oneclick-backend/internal/wishlist"
	"github.com/oneclickretail/oneclick-backend/pkg/config"
	"github.com/oneclickretail/oneclick-backend/pkg/db"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
	"github.com/oneclickretail/oneclick-backend/pkg/metrics"
	"github.com/oneclickretail/oneclick-backend/pkg/migrate"
	"github.com/oneclickretail/oneclick-backend/pkg/outbox"
	"github.com/oneclickretail/oneclick-backend/pkg/redis"
	"github.com/oneclickretail/oneclick-backend/pkg/storage/local"
)

const shutdownTimeout = 10 * time.Second

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

	fileStore, err := local.NewStore(cfg.Uploads, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare uploads directory", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStoreMetrics(registry)

	gdb := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gdb), storeMetrics)
	requireService(logg, "notifications", err)

	usersSvc, err := users.NewService(users.NewRepository(gdb), dbClient, outboxSvc, notificationsSvc, cfg.JWT, cfg.Password)
	requireService(logg, "users", err)

	catalogRepo := catalog.NewRepository(gdb)
	catalogSvc, err := catalog.NewService(catalogRepo, dbClient, fileStore)
	requireService(logg, "catalog", err)

	cartSvc, err := cart.NewService(cart.NewRepository(gdb), catalogRepo, dbClient)
	requireService(logg, "cart", err)

	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(gdb), catalogRepo)
	requireService(logg, "wishlist", err)

	addressSvc, err := address.NewService(address.NewRepository(gdb), dbClient)
	requireService(logg, "address", err)

	couponsSvc, err := coupons.NewService(coupons.NewRepository(gdb), storeMetrics)
	requireService(logg, "coupons", err)

	ordersSvc, err := orders.NewService(orders.NewRepository(gdb), dbClient, outboxSvc, notificationsSvc, cartSvc, fileStore, storeMetrics)
	requireService(logg, "orders", err)

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, storeMetrics, registry, fileStore.Root(), routes.Services{
		Users:         usersSvc,
		Catalog:       catalogSvc,
		Cart:          cartSvc,
		Wishlist:      wishlistSvc,
		Address:       addressSvc,
		Coupons:       couponsSvc,
		Orders:        ordersSvc,
		Notifications: notificationsSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown error", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
