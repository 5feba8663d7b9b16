package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/config"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/event"
	handler "github.com/NEARBuilders/near-merch-store-sub000/internal/handler/http"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/migrations"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider/gelato"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider/printful"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/repository/postgres"
	redisrepo "github.com/NEARBuilders/near-merch-store-sub000/internal/repository/redis"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/service"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/database"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/health"
	pkgkafka "github.com/NEARBuilders/near-merch-store-sub000/pkg/kafka"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/retry"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/tracing"
)

const serviceName = "merch-store"

// App wires together all dependencies and runs the merch store service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	cleanup        *service.CleanupService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)
	database.RegisterPoolMetrics(pool, serviceName)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis; sync coordination state lives there.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Initialize Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Fulfillment provider registry. Providers without an API key are left
	// unregistered; the manual provider is always available.
	clients := []provider.Client{provider.NewManualClient()}
	if cfg.PrintfulAPIKey != "" {
		clients = append(clients, printful.NewClient(cfg.PrintfulAPIKey, cfg.PrintfulBaseURL, logger))
	}
	if cfg.GelatoAPIKey != "" {
		clients = append(clients, gelato.NewClient(cfg.GelatoAPIKey, cfg.GelatoBaseURL, logger))
	}
	registry := provider.NewRegistry(clients...)
	logger.Info("fulfillment providers registered", slog.Any("providers", registry.Names()))

	// Build the dependency graph.
	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	syncStates := redisrepo.NewSyncStateStore(redisClient)
	eventProducer := event.NewProducer(producer, logger)

	webhookService := service.NewWebhookService(
		orderRepo,
		registry,
		eventProducer,
		service.WebhookSecrets{
			Printful: cfg.PrintfulWebhookSecret,
			Gelato:   cfg.GelatoWebhookSecret,
			PingPay:  cfg.PingPayWebhookSecret,
		},
		retry.DefaultConfig(),
		logger,
	)
	syncService := service.NewSyncService(syncStates, productRepo, registry, eventProducer, logger)
	orderService := service.NewOrderService(orderRepo, logger)
	cleanupService := service.NewCleanupService(orderRepo, registry, eventProducer, cfg.CleanupMaxAge, cfg.CleanupInterval, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		WebhookService: webhookService,
		SyncService:    syncService,
		OrderService:   orderService,
		HealthHandler:  healthHandler,
		JWTSecret:      cfg.JWTSecret,
		AdminRole:      cfg.AdminRole,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		cleanup:        cleanupService,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the background cleanup loop and blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	defer cleanupCancel()
	go a.cleanup.Run(cleanupCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: drain in-flight HTTP
// requests first, then flush spans, then close Kafka, Redis, and PostgreSQL.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Flush pending spans after the HTTP drain so in-flight request spans
	// are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
