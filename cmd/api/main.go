package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/idempotency"
	"github.com/wms-platform/putwall-service/pkg/kafka"
	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
	"github.com/wms-platform/putwall-service/pkg/middleware"
	"github.com/wms-platform/putwall-service/pkg/mongodb"
	"github.com/wms-platform/putwall-service/pkg/outbox"
	"github.com/wms-platform/putwall-service/pkg/tracing"

	httpapi "github.com/wms-platform/putwall-service/internal/api/http"
	"github.com/wms-platform/putwall-service/internal/application"
	mongoRepo "github.com/wms-platform/putwall-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/putwall-service/internal/performance"
)

const serviceName = "putwall-service"

func main() {
	// Setup logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting putwall-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint, "enabled", tracingConfig.Enabled)
	}

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// Initialize MongoDB with instrumentation
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	instrumentedMongo := mongodb.NewInstrumentedClient(mongoClient, m, logger)
	defer instrumentedMongo.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer with instrumentation
	kafkaProducer := kafka.NewProducer(config.Kafka)
	instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
	defer instrumentedProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourcePutWall)

	// Initialize repository; wall changes and their events share one transaction
	repo := mongoRepo.NewPutWallRepository(instrumentedMongo, eventFactory)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Warn("Failed to create indexes")
	}

	// Initialize and start outbox publisher
	outboxPublisher := outbox.NewPublisher(
		repo.OutboxRepository(),
		instrumentedProducer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer func() {
		if err := outboxPublisher.Stop(); err != nil {
			logger.WithError(err).Warn("Failed to stop outbox publisher")
		}
	}()
	logger.Info("Outbox publisher started")

	// Initialize application service
	tracker := performance.NewTracker()
	eventHandler := application.NewPutWallEventHandler(tracker, m, logger)
	putWallService := application.NewPutWallApplicationService(repo, eventHandler, m, logger)

	// Initialize idempotency storage for Idempotency-Key replays and consumer dedup
	if err := idempotency.EnsureIndexes(ctx, instrumentedMongo.Database()); err != nil {
		logger.WithError(err).Warn("Failed to create idempotency indexes")
	}
	idempotencyKeyRepo := idempotency.NewMongoKeyRepository(instrumentedMongo.Database())
	processedMessageRepo := idempotency.NewMongoMessageRepository(instrumentedMongo.Database())

	// Feed events saved by the Temporal worker into the KPI tracker
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	eventConsumer := kafka.NewConsumer(config.Kafka, kafka.Topics.PutWallEvents, logger)
	defer eventConsumer.Close()

	dedupConfig := idempotency.DefaultConsumerConfig(serviceName, kafka.Topics.PutWallEvents, config.Kafka.ConsumerGroup, processedMessageRepo, logger)
	dedupConfig.Metrics = m
	remoteEvents := application.NewRemoteEventConsumer(eventHandler, repo, cloudevents.SourcePutWallWorker, logger)
	eventConsumer.SubscribeAll(idempotency.DeduplicatingHandler(dedupConfig, remoteEvents.Handle))
	go func() {
		if err := eventConsumer.Run(consumerCtx); err != nil {
			logger.WithError(err).Error("Event consumer stopped")
		}
	}()
	logger.Info("Event consumer started", "topic", kafka.Topics.PutWallEvents, "group", config.Kafka.ConsumerGroup)

	// Setup Gin router with middleware
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger)
	middlewareConfig.Metrics = m
	middlewareConfig.EnableTracing = tracingConfig.Enabled
	middlewareConfig.ErrorRules = application.ErrorRules()
	middlewareConfig.Idempotency = idempotency.DefaultConfig(serviceName, idempotencyKeyRepo, logger)
	middlewareConfig.Idempotency.Metrics = m
	middlewareConfig.Idempotency.RequireKey = config.RequireIdempotencyKey
	middleware.Setup(router, middlewareConfig)

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, instrumentedMongo.HealthCheck))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	httpapi.SetupRoutes(router, httpapi.NewHandlers(putWallService, tracker))

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
			os.Exit(1)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	stopConsumer()

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr            string
	Environment           string
	RequireIdempotencyKey bool
	MongoDB               *mongodb.Config
	Kafka                 *kafka.Config
}

func loadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaConfig.ClientID = serviceName
	kafkaConfig.ConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", serviceName+"-kpi")

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)
	mongoConfig.AppName = serviceName
	mongoConfig.MinPoolSize = 10

	return &Config{
		ServerAddr:            getEnv("SERVER_ADDR", ":8020"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		RequireIdempotencyKey: getEnv("REQUIRE_IDEMPOTENCY_KEY", "false") == "true",
		MongoDB:               mongoConfig,
		Kafka:                 kafkaConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
