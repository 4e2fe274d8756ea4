package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/list-import/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer sets the prefetch limit and starts consuming the job queue
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	// prefetch bounds the unacknowledged deliveries buffered for this consumer
	if err := w.broker.Qos(w.prefetchCount); err != nil {
		return nil, err
	}

	w.logger.Info("RabbitMQ QoS configured",
		slog.Int("prefetch_count", w.prefetchCount),
	)

	deliveries, err := w.broker.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
	)

	return deliveries, nil
}

// startMessageDispatcher decodes deliveries and hands them to the worker pool
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			jobMsg, err := w.parseDelivery(delivery)
			if err != nil {
				w.logger.Error("Rejecting invalid job message",
					slog.String("error", err.Error()),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
					slog.String("body", string(delivery.Body)),
				)
				// malformed messages can never succeed, send them to the dead-letter queue
				if nackErr := w.broker.Nack(delivery.DeliveryTag, false); nackErr != nil {
					w.logger.Error("Failed to NACK invalid message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case w.jobsChan <- jobMsg:
				w.logger.Debug("Job dispatched to worker pool",
					slog.String("job_id", jobMsg.Job.JobID),
					slog.Uint64("delivery_tag", jobMsg.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching job")
				if nackErr := w.broker.Nack(delivery.DeliveryTag, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}

// parseDelivery decodes and validates an ImportJob message body
func (w *Worker) parseDelivery(delivery amqp.Delivery) (*domain.JobMessage, error) {
	var job domain.ImportJob
	if err := json.Unmarshal(delivery.Body, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}

	if err := w.validate.Struct(job); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}

	return &domain.JobMessage{
		Job:         job,
		DeliveryTag: delivery.DeliveryTag,
		Redelivered: delivery.Redelivered,
	}, nil
}
