package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/matthieuvidal/fermelink-backend/api/routes"
	checkoutsvc "github.com/matthieuvidal/fermelink-backend/internal/checkout"
	"github.com/matthieuvidal/fermelink-backend/internal/invoices"
	"github.com/matthieuvidal/fermelink-backend/internal/notifications"
	"github.com/matthieuvidal/fermelink-backend/internal/orders"
	"github.com/matthieuvidal/fermelink-backend/internal/products"
	"github.com/matthieuvidal/fermelink-backend/internal/users"
	"github.com/matthieuvidal/fermelink-backend/internal/wallets"
	"github.com/matthieuvidal/fermelink-backend/pkg/auth/session"
	"github.com/matthieuvidal/fermelink-backend/pkg/config"
	"github.com/matthieuvidal/fermelink-backend/pkg/db"
	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
	"github.com/matthieuvidal/fermelink-backend/pkg/migrate"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox"
	"github.com/matthieuvidal/fermelink-backend/pkg/redis"
	"github.com/matthieuvidal/fermelink-backend/pkg/square"
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

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create square client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	ordersRepo := orders.NewRepository(gormDB)

	walletsSvc, err := wallets.NewService(wallets.NewRepository(gormDB), dbClient, outboxSvc, cfg.Wallet)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallets service", err)
		os.Exit(1)
	}

	invoicesSvc, err := invoices.NewService(invoices.NewRepository(gormDB), ordersRepo, walletsSvc, dbClient, outboxSvc, cfg.Invoice)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(ordersRepo, dbClient, outboxSvc, walletsSvc, invoicesSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkoutsvc.NewService(
		checkoutsvc.NewRepository(gormDB),
		ordersRepo,
		dbClient,
		checkoutsvc.NewSquareGateway(squareClient),
		logg,
		cfg.Checkout,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	productsSvc, err := products.NewService(products.NewRepository(gormDB), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	usersSvc, err := users.NewService(users.NewRepository(gormDB), dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Orders:        ordersSvc,
			Checkout:      checkoutSvc,
			Invoices:      invoicesSvc,
			Wallets:       walletsSvc,
			Products:      productsSvc,
			Users:         usersSvc,
			Notifications: notificationsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
