package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/souq-backend/api/routes"
	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/internal/notifications"
	"github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	products "github.com/angelmondragon/souq-backend/internal/products"
	"github.com/angelmondragon/souq-backend/internal/users"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/env"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/mailer"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
	"github.com/angelmondragon/souq-backend/pkg/migrate"
	"github.com/angelmondragon/souq-backend/pkg/redis"
	"github.com/angelmondragon/souq-backend/pkg/shipping"
)

const shutdownTimeout = 15 * time.Second

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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)
	currency := enums.Currency(cfg.Ledger.Currency)
	conn := dbClient.DB()

	wallets, err := ledger.NewService(ledger.NewRepository(conn), dbClient, logg, ledger.Options{
		Currency: currency,
		Metrics:  ledgerMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.NewRepository(conn), dbClient, wallets, logg, payouts.Options{
		AdminWalletID:  cfg.Ledger.AdminWallet(),
		VendorRate:     cfg.Ledger.VendorShareRate,
		CommissionRate: cfg.Ledger.CommissionRate,
		Currency:       currency,
		Metrics:        ledgerMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	var dispatcher *notifications.Dispatcher
	orderOpts := orders.Options{Metrics: ledgerMetrics, Currency: currency}
	if cfg.Sendgrid.Enabled() {
		mailClient, err := mailer.NewClient(cfg.Sendgrid.APIKey, cfg.Sendgrid.DefaultFrom, mailer.WithBaseURL(cfg.Sendgrid.BaseURL))
		if err != nil {
			logg.Error(context.Background(), "failed to create mail client", err)
			os.Exit(1)
		}
		dispatcher, err = notifications.NewDispatcher(mailClient, users.NewRepository(conn), logg, notifications.Options{Metrics: ledgerMetrics})
		if err != nil {
			logg.Error(context.Background(), "failed to create notification dispatcher", err)
			os.Exit(1)
		}
		orderOpts.Notifier = dispatcher
	} else {
		logg.Warn(context.Background(), "sendgrid not configured, order emails disabled")
	}

	orderService, err := orders.NewService(orders.NewRepository(conn), dbClient, products.NewRepository(conn), wallets, payoutService, logg, orderOpts)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	var shippingClient *shipping.Client
	if cfg.Shipping.BaseURL != "" {
		shippingClient, err = shipping.NewClient(cfg.Shipping.BaseURL, cfg.Shipping.APIKey, shipping.WithTimeout(cfg.Shipping.Timeout), shipping.WithRetries(2))
		if err != nil {
			logg.Error(context.Background(), "failed to create shipping client", err)
			os.Exit(1)
		}
	}

	addr := ":" + env.First(cfg.App.Port, "PORT")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Orders:   orderService,
			Wallets:  wallets,
			Payouts:  payoutService,
			Shipping: shippingClient,
			Metrics:  registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	if dispatcher != nil {
		if err := dispatcher.Flush(shutdownCtx); err != nil {
			logg.Warn(ctx, "pending notifications dropped on shutdown")
		}
	}
	logg.Info(ctx, "api server shut down gracefully")
}
