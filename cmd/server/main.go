package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paycore/internal/app"
	"paycore/internal/config"
	"paycore/internal/domain"
	"paycore/internal/gateway"
	"paycore/internal/handler"
	"paycore/internal/outbox"
	"paycore/internal/provider"
	internalRedis "paycore/internal/redis"
	"paycore/internal/repository/postgres"
	"paycore/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if err := app.Migrate(ctx, db); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	// Wire dependencies.
	server, dispatcher := wireServer(db, redisClient, nrApp, cfg, logger)

	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// outbox dispatcher.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *zap.Logger) (*http.Server, *outbox.Dispatcher) {
	// Initialize repositories.
	txRunner := postgres.NewTxRunner(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	// Initialize the outbox dispatcher with the downstream consumers.
	dispatcher := outbox.NewDispatcher(txRunner, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, logger)

	eventGuard := internalRedis.NewEventGuard(redisClient, 24*time.Hour)
	notificationService := service.NewNotificationService(eventGuard, logger)
	dispatcher.Subscribe(domain.EventPaymentApproved, notificationService.HandleApproved)
	dispatcher.Subscribe(domain.EventPaymentCanceled, notificationService.HandleCanceled)

	// Initialize providers.
	gatewayClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.SecretKey, cfg.Gateway.Timeout)
	providers := provider.NewRegistry(
		provider.NewPointProvider(txRunner),
		provider.NewTossProvider(txRunner, gatewayClient, logger),
	)

	// Initialize services.
	paymentService := service.NewPaymentService(providers, txRunner, paymentRepo, historyRepo, dispatcher, logger)
	historyService := service.NewHistoryService(historyRepo)

	// Initialize handlers.
	paymentHandler := handler.NewPaymentHandler(paymentService)
	historyHandler := handler.NewHistoryHandler(historyService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		PaymentHandler: paymentHandler,
		HistoryHandler: historyHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, dispatcher
}
