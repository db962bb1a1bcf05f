package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/application/provisioning"
	"github.com/netbill/backend/internal/application/reconciliation"
	"github.com/netbill/backend/internal/domain/shared"
	"github.com/netbill/backend/internal/infrastructure/cache"
	"github.com/netbill/backend/internal/infrastructure/config"
	"github.com/netbill/backend/internal/infrastructure/device"
	"github.com/netbill/backend/internal/infrastructure/event"
	"github.com/netbill/backend/internal/infrastructure/logger"
	"github.com/netbill/backend/internal/infrastructure/persistence"
	"github.com/netbill/backend/internal/interfaces/http/handler"
	"github.com/netbill/backend/internal/interfaces/http/middleware"
	"github.com/netbill/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting NetBill Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	subscriberRepo := persistence.NewGormSubscriberRepository(db.DB)
	servicePlanRepo := persistence.NewGormServicePlanRepository(db.DB)
	serviceContractRepo := persistence.NewGormServiceContractRepository(db.DB)
	deviceRepo := persistence.NewGormDeviceRepository(db.DB)
	profileTierRepo := persistence.NewGormProfileTierRepository(db.DB)
	networkIdentityRepo := persistence.NewGormNetworkIdentityRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Inject outbox publisher into repositories that publish domain events
	serviceContractRepo.SetOutboxEventSaver(outboxPublisher)
	subscriberRepo.SetOutboxEventSaver(outboxPublisher)
	networkIdentityRepo.SetOutboxEventSaver(outboxPublisher)

	// Initialize device adapter
	deviceAdapter := device.NewRouterOSAdapter(device.RouterOSAdapterConfig{
		Timeout: cfg.Device.Timeout,
	}, log)

	// Initialize the async dispatcher for device-side work
	dispatcher := event.NewDispatcher(event.DispatcherConfig{
		Workers:       cfg.Dispatcher.Workers,
		QueueCapacity: cfg.Dispatcher.QueueCapacity,
	}, log)
	if err := dispatcher.Start(context.Background()); err != nil {
		log.Fatal("Failed to start dispatcher", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := dispatcher.Stop(ctx); err != nil {
			log.Error("Error stopping dispatcher", zap.Error(err))
		}
	}()
	log.Info("Dispatcher started",
		zap.Int("workers", cfg.Dispatcher.Workers),
		zap.Int("queue_capacity", cfg.Dispatcher.QueueCapacity),
	)

	// Initialize idempotency store: Redis when configured, in-memory otherwise
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotencyStore = redisStore
		log.Info("Using Redis idempotency store",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("Using in-memory idempotency store")
	}

	// Initialize provisioning services
	retryExecutor := provisioning.NewRetryExecutor(provisioning.RetryConfig{
		MaxAttempts: cfg.Device.MaxAttempts,
		BaseDelay:   cfg.Device.BaseDelay,
		Multiplier:  cfg.Device.DelayMultiple,
	}, log)
	outcomeRecorder := provisioning.NewOutcomeRecorder(networkIdentityRepo, log)

	contractStatusHandler := provisioning.NewContractStatusHandler(
		dispatcher, retryExecutor, deviceAdapter,
		deviceRepo, networkIdentityRepo, servicePlanRepo,
		outcomeRecorder, log,
	)
	planChangedHandler := provisioning.NewPlanChangedHandler(
		dispatcher, retryExecutor, deviceAdapter,
		deviceRepo, networkIdentityRepo, servicePlanRepo,
		outcomeRecorder, log,
	)

	// Initialize event bus and subscribe handlers.
	// Outbox delivery is at-least-once, so every handler is wrapped with
	// idempotency checking.
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(contractStatusHandler, idempotencyStore, log))
	eventBus.Subscribe(event.NewIdempotentHandler(planChangedHandler, idempotencyStore, log))

	log.Info("Event handlers registered",
		zap.Strings("contract_status_events", contractStatusHandler.EventTypes()),
		zap.Strings("plan_changed_events", planChangedHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start the outbox processor for guaranteed event delivery
	processorConfig := event.OutboxProcessorConfig{
		BatchSize:        cfg.Event.BatchSize,
		PollInterval:     cfg.Event.PollInterval,
		CleanupEnabled:   cfg.Event.CleanupEnabled,
		CleanupRetention: cfg.Event.CleanupRetention,
		CleanupInterval:  cfg.Event.CleanupInterval,
	}
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
	if cfg.Event.ProcessorEnabled {
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Initialize reconciliation service
	reconciliationService := reconciliation.NewService(
		deviceRepo, profileTierRepo, networkIdentityRepo,
		servicePlanRepo, subscriberRepo, serviceContractRepo,
		deviceAdapter, log,
	)

	// Initialize HTTP handlers
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService, log)
	deviceHandler := handler.NewDeviceHandler(deviceRepo)
	outboxHandler := handler.NewOutboxHandler(outboxRepo)
	healthHandler := handler.NewHealthHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.ContextLogger(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.Tenant())

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", healthHandler.Check)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(reconciliationHandler).
		Register(deviceHandler).
		Register(outboxHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
