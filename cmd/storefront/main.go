package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/DanielPopoola/atelier-storefront/internal/adapters/catalog"
	"github.com/DanielPopoola/atelier-storefront/internal/adapters/handler"
	"github.com/DanielPopoola/atelier-storefront/internal/adapters/handler/middleware"
	"github.com/DanielPopoola/atelier-storefront/internal/adapters/localstore"
	"github.com/DanielPopoola/atelier-storefront/internal/adapters/notify"
	"github.com/DanielPopoola/atelier-storefront/internal/adapters/payment"
	"github.com/DanielPopoola/atelier-storefront/internal/adapters/postgres"
	"github.com/DanielPopoola/atelier-storefront/internal/adapters/shipping"
	"github.com/DanielPopoola/atelier-storefront/internal/config"
	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/DanielPopoola/atelier-storefront/internal/core/service"
	"github.com/DanielPopoola/atelier-storefront/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting storefront service",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	if err := postgres.Migrate(cfg.Database.MigrationURL(), logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := postgres.NewRepository(db)

	var sessions ports.LocalStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sessions = localstore.NewRedisStore(client, cfg.Redis.SessionTTL)
	} else {
		logger.Warn("redis address not set, keeping sessions in memory")
		sessions = localstore.NewMemoryStore()
	}

	mongoDB, err := catalog.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		logger.Error("failed to connect to catalog", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Client().Disconnect(context.Background())
	products := catalog.NewMongoCatalog(mongoDB, logger)

	table, err := cfg.Currency.LoadCurrencyTable()
	if err != nil {
		logger.Error("failed to load currency table", "error", err)
		os.Exit(1)
	}

	gateway := payment.NewRetryGateway(payment.NewHTTPClient(cfg.Payment), cfg.Retry)

	rules, err := shipping.NewFlatRateRules(cfg.Shipping)
	if err != nil {
		logger.Error("invalid shipping configuration", "error", err)
		os.Exit(1)
	}

	var hooks []ports.PostCommitHook
	if cfg.Notification.EmailBaseURL != "" {
		emails, err := notify.NewEmailNotifier(cfg.Notification)
		if err != nil {
			logger.Error("failed to build email notifier", "error", err)
			os.Exit(1)
		}
		hooks = append(hooks, service.NewConfirmationEmailHook(emails, table, cfg.Checkout.SupportContact))
	}
	var publisher *notify.OrderEventPublisher
	if len(cfg.Notification.KafkaBrokers) > 0 {
		publisher = notify.NewOrderEventPublisher(cfg.Notification.KafkaBrokers, cfg.Notification.OrderTopic)
		hooks = append(hooks, publisher)
	}

	materializer := service.NewMaterializer(repo, service.MaterializerConfig{
		Timeout:             cfg.Checkout.MaterializeTimeout,
		HookTimeout:         cfg.Checkout.HookTimeout,
		FailureWriteTimeout: cfg.Checkout.FailureWriteTimeout,
		SupportContact:      cfg.Checkout.SupportContact,
	}, logger, hooks...)

	currencyService := service.NewCurrencyService(table, sessions, logger)
	cartService := service.NewCartService(sessions, logger)
	checkoutService, err := service.NewCheckoutService(
		cartService,
		currencyService,
		repo,
		gateway,
		rules,
		materializer,
		service.CheckoutConfig{
			PaymentTimeout: cfg.Checkout.PaymentTimeout,
			PublicKey:      cfg.Payment.PublicKey,
			PaymentMethod:  cfg.Checkout.PaymentMethod,
			SupportContact: cfg.Checkout.SupportContact,
			Settlement: domain.SettlementPolicy{
				Allowed: cfg.Checkout.SettlementCurrencies,
				Default: cfg.Checkout.DefaultSettlement,
			},
		},
		logger,
	)
	if err != nil {
		logger.Error("invalid checkout configuration", "error", err)
		os.Exit(1)
	}

	h := handler.NewStorefrontHandler(
		currencyService,
		cartService,
		checkoutService,
		repo,
		products,
		cfg.Checkout.CatalogPath,
		logger,
	)

	router, err := h.Routes()
	if err != nil {
		logger.Error("failed to build routes", "error", err)
		os.Exit(1)
	}

	httpHandler := middleware.Recovery(logger)(router)
	httpHandler = middleware.Logging(logger)(httpHandler)
	httpHandler = middleware.Timeout(cfg.Server.RequestTimeout, handler.IsCheckoutSubmission)(httpHandler)
	httpHandler = otelhttp.NewHandler(httpHandler, "storefront")

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	reconciler := worker.NewReconciler(repo, gateway, materializer, worker.ReconcilerConfig{
		Interval:    cfg.Worker.Interval,
		BatchSize:   cfg.Worker.BatchSize,
		StaleAfter:  cfg.Worker.StaleAfter,
		MaxAttempts: cfg.Worker.MaxAttempts,
	}, logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go reconciler.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	// Running checkouts may need their whole budget to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Checkout.Budget())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	materializer.Drain()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close order event publisher", "error", err)
		}
	}

	logger.Info("server exited")
}
