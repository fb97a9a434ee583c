package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietcart/vietcart-backend/internal/cart"
	"github.com/vietcart/vietcart-backend/internal/catalog"
	"github.com/vietcart/vietcart-backend/internal/checkout"
	"github.com/vietcart/vietcart-backend/internal/cron"
	"github.com/vietcart/vietcart-backend/internal/orders"
	"github.com/vietcart/vietcart-backend/internal/payments"
	"github.com/vietcart/vietcart-backend/internal/pendingpayments"
	"github.com/vietcart/vietcart-backend/internal/shipments"
	"github.com/vietcart/vietcart-backend/pkg/config"
	"github.com/vietcart/vietcart-backend/pkg/db"
	"github.com/vietcart/vietcart-backend/pkg/logger"
	"github.com/vietcart/vietcart-backend/pkg/metrics"
	"github.com/vietcart/vietcart-backend/pkg/migrate"
	"github.com/vietcart/vietcart-backend/pkg/redis"
)

const lockKeyFormat = "vietcart:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, dbClient, metricsCollector)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.PendingPaymentInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	go serveMetrics(ctx, cfg.Cron.MetricsPort, logg)

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, cronMetrics *metrics.CronJobMetrics) (*cron.Registry, error) {
	gormDB := dbClient.DB()

	cartRepo := cart.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)
	shipmentRepo := shipments.NewRepository(gormDB)
	pendingRepo := pendingpayments.NewRepository(gormDB)

	pendingSvc, err := pendingpayments.NewService(pendingRepo)
	if err != nil {
		return nil, err
	}
	paymentSvc, err := payments.NewService(paymentRepo)
	if err != nil {
		return nil, err
	}
	placer, err := checkout.NewPlacer(dbClient, cartRepo, orderRepo, catalogRepo, paymentRepo, shipmentRepo)
	if err != nil {
		return nil, err
	}

	pendingJob, err := cron.NewPendingPaymentJob(pendingSvc, placer, paymentSvc, logg, cronMetrics, cfg.Cron.PendingPaymentMaxAttempts)
	if err != nil {
		return nil, err
	}
	abandonJob, err := cron.NewCartAbandonJob(cartRepo, logg, cfg.Cron.CartAbandonAfter)
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(pendingJob, abandonJob), nil
}

func serveMetrics(ctx context.Context, port string, logg *logger.Logger) {
	if port == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
