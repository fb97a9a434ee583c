package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/vietcart/vietcart-backend/api/routes"
	"github.com/vietcart/vietcart-backend/internal/address"
	internalauth "github.com/vietcart/vietcart-backend/internal/auth"
	"github.com/vietcart/vietcart-backend/internal/cart"
	"github.com/vietcart/vietcart-backend/internal/catalog"
	"github.com/vietcart/vietcart-backend/internal/checkout"
	"github.com/vietcart/vietcart-backend/internal/customers"
	"github.com/vietcart/vietcart-backend/internal/gateway"
	"github.com/vietcart/vietcart-backend/internal/orders"
	"github.com/vietcart/vietcart-backend/internal/paymentmethods"
	"github.com/vietcart/vietcart-backend/internal/payments"
	"github.com/vietcart/vietcart-backend/internal/pendingpayments"
	"github.com/vietcart/vietcart-backend/internal/shipments"
	"github.com/vietcart/vietcart-backend/pkg/auth/session"
	"github.com/vietcart/vietcart-backend/pkg/config"
	"github.com/vietcart/vietcart-backend/pkg/db"
	"github.com/vietcart/vietcart-backend/pkg/logger"
	"github.com/vietcart/vietcart-backend/pkg/migrate"
	"github.com/vietcart/vietcart-backend/pkg/redis"
	"github.com/vietcart/vietcart-backend/pkg/vnpay"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Services, error) {
	gormDB := dbClient.DB()

	customerRepo := customers.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	methodRepo := paymentmethods.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	shipmentRepo := shipments.NewRepository(gormDB)
	pendingRepo := pendingpayments.NewRepository(gormDB)
	sessionRepo := checkout.NewRepository(gormDB)

	customerSvc, err := customers.NewService(customerRepo, cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}
	authSvc, err := internalauth.NewService(customerSvc, sessionManager, cfg.JWT)
	if err != nil {
		return routes.Services{}, err
	}
	catalogSvc, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	cartSvc, err := cart.NewService(cartRepo, dbClient, catalogSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}
	addressSvc, err := address.NewService(addressRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	methodSvc, err := paymentmethods.NewService(methodRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	paymentSvc, err := payments.NewService(paymentRepo)
	if err != nil {
		return routes.Services{}, err
	}
	orderSvc, err := orders.NewService(orderRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	shipmentSvc, err := shipments.NewService(shipmentRepo, orderSvc)
	if err != nil {
		return routes.Services{}, err
	}
	pendingSvc, err := pendingpayments.NewService(pendingRepo)
	if err != nil {
		return routes.Services{}, err
	}

	placer, err := checkout.NewPlacer(dbClient, cartRepo, orderRepo, catalogRepo, paymentRepo, shipmentRepo)
	if err != nil {
		return routes.Services{}, err
	}
	vnpayClient, err := vnpay.NewClient(cfg.VNPay, logg)
	if err != nil {
		return routes.Services{}, err
	}
	checkoutSvc, err := checkout.NewService(sessionRepo, cartRepo, placer, addressSvc, methodSvc, paymentSvc, vnpayClient, cfg.Checkout, logg)
	if err != nil {
		return routes.Services{}, err
	}
	gatewaySvc, err := gateway.NewService(vnpayClient, placer, paymentSvc, pendingSvc, sessionRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Customers:      customerSvc,
		Auth:           authSvc,
		Catalog:        catalogSvc,
		Cart:           cartSvc,
		Addresses:      addressSvc,
		PaymentMethods: methodSvc,
		Checkout:       checkoutSvc,
		Orders:         orderSvc,
		Payments:       paymentSvc,
		Shipments:      shipmentSvc,
		PendingLedger:  pendingSvc,
		Gateway:        gatewaySvc,
	}, nil
}
