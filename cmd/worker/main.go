package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wms-platform/putwall-service/internal/activities"
	"github.com/wms-platform/putwall-service/internal/application"
	mongoRepo "github.com/wms-platform/putwall-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/putwall-service/internal/workflows"
	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
	"github.com/wms-platform/putwall-service/pkg/mongodb"
	"github.com/wms-platform/putwall-service/pkg/temporal"
	"github.com/wms-platform/putwall-service/pkg/tracing"
)

const serviceName = "putwall-worker"

func main() {
	// Setup logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting putwall-service worker")

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
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracerProvider.Shutdown(shutdownCtx)
		}()
	}

	// Initialize Prometheus metrics, served on their own port
	m := metrics.New(metrics.DefaultConfig(serviceName))
	metricsSrv := &http.Server{Addr: config.MetricsAddr, Handler: m.Handler(), ReadTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Metrics server error")
		}
	}()

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	instrumentedMongo := mongodb.NewInstrumentedClient(mongoClient, m, logger)
	defer instrumentedMongo.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize repository; the API process relays the outbox and feeds
	// the worker-sourced events back into its KPI tracker
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourcePutWallWorker)
	repo := mongoRepo.NewPutWallRepository(instrumentedMongo, eventFactory)
	putWallService := application.NewPutWallApplicationService(repo, nil, m, logger)

	// Initialize Temporal client
	temporalClient, err := temporal.NewClient(ctx, config.Temporal, logger.Logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort)

	// Create worker
	workerOpts := temporal.DefaultWorkerOptions(temporal.TaskQueues.PutWall)
	w := temporalClient.NewWorker(workerOpts)

	// Register workflow
	w.RegisterWorkflow(workflows.PutWallOrderWorkflow)
	logger.Info("Registered workflow", "workflow", temporal.WorkflowNames.PutWallOrder)

	// Register activities
	putWallActivities := activities.NewPutWallActivities(putWallService, m)
	w.RegisterActivity(putWallActivities.AssignOrderToSlot)
	w.RegisterActivity(putWallActivities.ConfirmPutInSlot)
	w.RegisterActivity(putWallActivities.ReleaseSlot)
	logger.Info("Registered activities")

	// Start worker
	if err := w.Start(); err != nil {
		logger.WithError(err).Error("Failed to start worker")
		os.Exit(1)
	}
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.PutWall)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	logger.Info("Worker stopped")
}

// Config holds worker configuration
type Config struct {
	MetricsAddr string
	MongoDB     *mongodb.Config
	Temporal    *temporal.Config
}

func loadConfig() *Config {
	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)
	mongoConfig.AppName = serviceName

	temporalConfig := temporal.DefaultConfig()
	temporalConfig.HostPort = getEnv("TEMPORAL_HOST", temporalConfig.HostPort)
	temporalConfig.Namespace = getEnv("TEMPORAL_NAMESPACE", temporalConfig.Namespace)

	return &Config{
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		MongoDB:     mongoConfig,
		Temporal:    temporalConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
