package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/docuforms/wallet-service/internal/api"
	v1 "github.com/docuforms/wallet-service/internal/api/v1"
	apivalidator "github.com/docuforms/wallet-service/internal/api/validator"
	"github.com/docuforms/wallet-service/internal/config"
	"github.com/docuforms/wallet-service/internal/database"
	apierrors "github.com/docuforms/wallet-service/internal/errors"
	"github.com/docuforms/wallet-service/internal/metrics"
	"github.com/docuforms/wallet-service/internal/repository"
	"github.com/docuforms/wallet-service/internal/service"
	"github.com/docuforms/wallet-service/pkg/gateway"
	"github.com/docuforms/wallet-service/pkg/httpclient"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,
			metrics.NewMetrics,
			database.NewConnection,
			newFiberApp,
			newValidator,
			newHTTPClient,
			newGatewayClient,
			newSigner,
			repository.NewAccountBalanceRepository,
			repository.NewTransactionRepository,
			repository.NewPriceRepository,
			newWalletService,
			newTopUpService,
			v1.NewHandler,
		),
		fx.Invoke(migrate, startServer, startMetricsServer),
	).Run()
}

func newFiberApp(m *metrics.Metrics, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: apierrors.ErrorHandler(),
	})

	app.Use(metrics.HealthCheckMiddleware())
	app.Use(metrics.HTTPMetricsMiddleware(m, logger))

	return app
}

func newValidator(m *metrics.Metrics) apivalidator.IXValidator {
	return apivalidator.NewXValidator(validator.New(), m)
}

func newHTTPClient(cfg *config.Config) httpclient.HTTPClient {
	return httpclient.NewHTTPClient(cfg.Gateway.Timeout)
}

func newGatewayClient(cfg *config.Config, client httpclient.HTTPClient) gateway.Client {
	return gateway.NewClient(cfg.Gateway, client)
}

func newSigner(cfg *config.Config) *gateway.Signer {
	return gateway.NewSigner(cfg.Gateway.WebhookSecret)
}

func newWalletService(
	cfg *config.Config,
	accounts repository.AccountBalanceRepository,
	transactions repository.TransactionRepository,
	prices repository.PriceRepository,
	logger *zap.Logger,
	m *metrics.Metrics,
) service.WalletService {
	return service.NewWalletService(accounts, transactions, prices, cfg.Wallet.MaxAttempts, logger, m)
}

func newTopUpService(
	cfg *config.Config,
	client gateway.Client,
	signer *gateway.Signer,
	accounts repository.AccountBalanceRepository,
	transactions repository.TransactionRepository,
	logger *zap.Logger,
	m *metrics.Metrics,
) service.TopUpService {
	return service.NewTopUpService(client, signer, cfg.Gateway, accounts, transactions, cfg.Wallet.MaxAttempts, logger, m)
}

func migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := database.Migrate(db); err != nil {
		logger.Error("Migration failed", zap.Error(err))
		return err
	}
	return nil
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler, cfg, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Error("API server stopped", zap.Error(err))
				}
			}()
			logger.Info("API server listening", zap.String("port", cfg.API.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

func startMetricsServer(cfg *config.Config, m *metrics.Metrics, db *gorm.DB, logger *zap.Logger, lc fx.Lifecycle) {
	systemCollector := metrics.NewSystemCollector(m, logger)
	dbCollector := metrics.NewDatabaseMetricsCollector(m, logger, db)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Port, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			systemCollector.Start(15 * time.Second)
			dbCollector.Start(15 * time.Second)

			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Metrics server stopped", zap.Error(err))
				}
			}()
			logger.Info("Metrics server listening", zap.String("port", cfg.Metrics.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			systemCollector.Stop()
			dbCollector.Stop()
			return server.Shutdown(ctx)
		},
	})
}
