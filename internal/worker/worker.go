package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"
)

// JobRunner runs a single import job
type JobRunner interface {
	Run(ctx context.Context, job domain.ImportJob) (*domain.ImportResult, error)
}

// MessageBroker delivers job messages and settles them by delivery tag
type MessageBroker interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
	Ack(deliveryTag uint64) error
	Nack(deliveryTag uint64, requeue bool) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Broker        MessageBroker
	Runner        JobRunner
	Validator     *validator.Validate
	WorkerID      string
	Concurrency   int
	PrefetchCount int
	// JobTimeout bounds a single import. Zero means no limit.
	JobTimeout time.Duration
}

// Worker consumes import jobs and runs them on a fixed pool of goroutines
type Worker struct {
	logger        *slog.Logger
	broker        MessageBroker
	runner        JobRunner
	validate      *validator.Validate
	workerID      string
	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration
	jobsChan      chan *domain.JobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}
	validate := cfg.Validator
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &Worker{
		logger:        cfg.Logger,
		broker:        cfg.Broker,
		runner:        cfg.Runner,
		validate:      validate,
		workerID:      cfg.WorkerID,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		jobTimeout:    cfg.JobTimeout,
		jobsChan:      make(chan *domain.JobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start subscribes to the job queue and processes deliveries until ctx is
// canceled. Jobs already running when ctx ends are finished and settled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.startMessageDispatcher(ctx, deliveries)
	}()

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")

	return nil
}

// Stop waits for in-flight jobs to be settled
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
