package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/crushpad/terminal-service/internal/adapters/orders"
	"github.com/crushpad/terminal-service/internal/adapters/postgres"
	"github.com/crushpad/terminal-service/internal/adapters/secrets"
	"github.com/crushpad/terminal-service/internal/adapters/spin"
	httpapi "github.com/crushpad/terminal-service/internal/api/http"
	"github.com/crushpad/terminal-service/internal/config"
	"github.com/crushpad/terminal-service/internal/domain/ports"
	"github.com/crushpad/terminal-service/internal/logging"
	"github.com/crushpad/terminal-service/internal/services/sale"
	"github.com/crushpad/terminal-service/internal/services/status"
	"github.com/crushpad/terminal-service/pkg/observability"
	"github.com/crushpad/terminal-service/pkg/resilience"
	"github.com/crushpad/terminal-service/pkg/resourcemgmt"
	"github.com/crushpad/terminal-service/pkg/shutdown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := newZapLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	logger := logging.NewZapLogger(zapLogger)

	ctx := context.Background()

	// Database
	db, err := postgres.New(ctx, &postgres.Config{
		DatabaseURL:     cfg.Database.ConnectionString(),
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Secret manager backend
	secretManager, err := newSecretManager(ctx, cfg.Secrets, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize secret manager", zap.Error(err))
	}

	// Terminal gateway
	gatewayConfig := spin.DefaultConfig(cfg.Gateway.Environment)
	if cfg.Gateway.BaseURL != "" {
		gatewayConfig.BaseURL = cfg.Gateway.BaseURL
	}
	gatewayConfig.Timeout = time.Duration(cfg.Gateway.Timeout) * time.Second
	gateway := spin.NewAdapter(gatewayConfig, zapLogger)

	// Order system client
	timeouts := resilience.DefaultTimeoutConfig()
	orderClient := orders.NewClient(&orders.Config{
		BaseURL: cfg.Orders.BaseURL,
		APIKey:  cfg.Orders.APIKey,
		Timeout: timeouts.OrderCreation,
	}, zapLogger)

	// Resource management
	tracker := resourcemgmt.NewGoroutineTracker(zapLogger, nil)
	inflight := shutdown.NewInFlightTracker("gateway_continuations", zapLogger)

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	go tracker.StartMonitoring(monitorCtx)

	// Services
	saleService, err := sale.NewService(
		db,
		postgres.NewPendingRepository(),
		postgres.NewTransactionRepository(),
		postgres.NewPaymentMethodRepository(),
		postgres.NewTerminalRepository(),
		gateway,
		secretManager,
		orderClient,
		tracker,
		inflight,
		logger,
		cfg.Sale.Deadline,
	)
	if err != nil {
		zapLogger.Fatal("failed to create sale service", zap.Error(err))
	}

	poller := status.NewPoller(saleService, cfg.Sale.PollInterval, cfg.Sale.MaxWait, logger)

	// HTTP API
	router := httpapi.NewRouter(saleService, poller, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Sale.MaxWait + 10*time.Second, // blocking status waits
		IdleTimeout:  60 * time.Second,
	}

	// Metrics and health
	healthChecker := observability.NewHealthChecker(db.Pool(), inflight)
	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)

	// Shutdown in LIFO order: the HTTP server goes first so no new sales
	// start, then in-flight gateway continuations drain, then the pool.
	shutdownManager := shutdown.NewManager(zapLogger, 150*time.Second)
	shutdownManager.RegisterNoErr("database", db.Close)
	shutdownManager.Register("gateway_continuations", inflight.Shutdown)
	shutdownManager.RegisterNoErr("goroutine_monitor", stopMonitor)
	shutdownManager.Register("metrics_server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(metricsServer)
	})
	shutdownManager.RegisterHTTPServer("http_server", server)

	go func() {
		zapLogger.Info("HTTP server listening",
			zap.String("addr", server.Addr),
			zap.Int("metrics_port", cfg.Server.MetricsPort),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	shutdownManager.WaitForShutdown()
}

func newZapLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}

	zapConfig := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		zapConfig.Level = level
	}
	return zapConfig.Build()
}

func newSecretManager(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case "aws":
		awsConfig := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsConfig.Profile = cfg.AWSProfile
		awsConfig.Endpoint = cfg.AWSEndpoint
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsConfig, logger)

	case "vault":
		vaultConfig := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultConfig.Token = cfg.VaultToken
		return secrets.NewVaultAdapter(ctx, vaultConfig, logger)

	default:
		logger.Warn("using local filesystem secret manager, not for production",
			zap.String("path", cfg.LocalPath))
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil
	}
}
