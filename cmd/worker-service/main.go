package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/list-import/internal/config"
	"github.com/cuongbtq/list-import/internal/importer"
	"github.com/cuongbtq/list-import/internal/status"
	"github.com/cuongbtq/list-import/internal/worker"
	workerstorage "github.com/cuongbtq/list-import/internal/worker/storage"
	"github.com/cuongbtq/list-import/shared/logger"
	"github.com/cuongbtq/list-import/shared/objectstore"
	"github.com/cuongbtq/list-import/shared/postgresql"
	"github.com/cuongbtq/list-import/shared/rabbitmq"
	"github.com/cuongbtq/list-import/shared/redisclient"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	workerID := resolveWorkerID(cfg.Worker.ID)

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("worker_id", workerID),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	redisClient, err := redisclient.NewClient(&redisclient.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	source, err := initObjectStore(ctx, &cfg.ObjectStore, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	statusStore := status.NewStore(redisClient, status.Config{
		KeyPrefix: cfg.Redis.KeyPrefix,
		TTL:       cfg.Redis.StatusTTL,
	}, appLogger.Logger)

	imp := importer.New(
		source,
		workerstorage.NewStorage(dbClient.GetDB(), appLogger.Logger),
		statusStore,
		importer.Config{
			BatchSize:               cfg.Import.BatchSize,
			ProgressInterval:        cfg.Import.ProgressInterval,
			MaxSourceBytes:          cfg.Import.MaxSourceBytes,
			DeleteSourceAfterImport: cfg.Import.DeleteSourceAfterImport,
		},
		appLogger.Logger,
	)

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:        appLogger.Logger,
		Broker:        rabbitClient,
		Runner:        imp,
		WorkerID:      workerID,
		Concurrency:   cfg.Worker.Concurrency,
		PrefetchCount: cfg.RabbitMQ.Consumer.PrefetchCount,
		JobTimeout:    cfg.Worker.JobTimeout,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		return err
	}

	// stop taking deliveries, running imports keep going until settled
	cancel()

	done := make(chan struct{})
	go func() {
		workerInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Worker stopped gracefully")
	case <-time.After(cfg.Worker.ShutdownTimeout):
		// unsettled deliveries are redelivered once the channel closes
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit",
			slog.Duration("shutdown_timeout", cfg.Worker.ShutdownTimeout),
		)
	}

	appLogger.Info("Worker service shutdown complete", dbClient.Stats())
	return nil
}

// resolveWorkerID names this process on the broker. Without a configured id
// the hostname is used, then a random id.
func resolveWorkerID(configured string) string {
	if configured != "" {
		return configured
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return "worker-" + host
	}
	return "worker-" + uuid.NewString()
}

func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

func initObjectStore(ctx context.Context, cfg *config.ObjectStoreConfig, logger *slog.Logger) (importer.Source, error) {
	switch cfg.Driver {
	case config.ObjectStoreLocal:
		return objectstore.NewLocalSource(cfg.Local.BaseDir, logger), nil
	case config.ObjectStoreS3:
		return objectstore.NewS3Source(ctx, &objectstore.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown object store driver: %q", cfg.Driver)
	}
}

func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		DeadLetterExchange: cfg.DeadLetterExchange,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
	}, logger)
}
