package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/list-import/internal/domain"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop runs jobs from jobsChan and settles each delivery
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Debug("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			return

		case <-ctx.Done():
			w.logger.Debug("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case msg := <-w.jobsChan:
			logger := w.logger.With(
				slog.String("worker_name", workerName),
				slog.String("job_id", msg.Job.JobID),
				slog.Uint64("delivery_tag", msg.DeliveryTag),
			)

			if err := w.processJob(ctx, msg); err != nil {
				requeue := shouldRequeueJob(err, msg.Redelivered)
				if nackErr := w.broker.Nack(msg.DeliveryTag, requeue); nackErr != nil {
					logger.Error("Failed to NACK message",
						slog.String("error", nackErr.Error()),
					)
					continue
				}
				logger.Info("Message NACKed",
					slog.Bool("requeue", requeue),
				)
				continue
			}

			if ackErr := w.broker.Ack(msg.DeliveryTag); ackErr != nil {
				logger.Error("Failed to ACK message",
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}

// shouldRequeueJob requeues transient failures once. A redelivered message
// that fails again goes to the dead-letter queue instead of looping.
func shouldRequeueJob(err error, redelivered bool) bool {
	var retryableErr *domain.RetryableError
	if !errors.As(err, &retryableErr) {
		return false
	}
	return !redelivered
}
