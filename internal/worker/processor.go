package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/list-import/internal/domain"
)

// processJob runs one import. Errors that a retry could fix come back
// wrapped in domain.RetryableError.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	job := msg.Job
	w.logger.Info("Processing job",
		slog.String("job_id", job.JobID),
		slog.String("worker_id", w.workerID),
		slog.Bool("redelivered", msg.Redelivered),
	)

	// shutdown must not abort a transaction halfway, only the job timeout may
	jobCtx := context.WithoutCancel(ctx)
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, w.jobTimeout)
		defer cancel()
	}

	result, err := w.runner.Run(jobCtx, job)
	if err != nil {
		if isPermanent(err) {
			return err
		}
		return domain.NewRetryableError(err)
	}

	if result.Duplicate {
		w.logger.Info("Duplicate delivery acknowledged",
			slog.String("job_id", job.JobID),
			slog.String("list_id", result.ListID),
		)
		return nil
	}

	w.logger.Info("Job completed successfully",
		slog.String("job_id", job.JobID),
		slog.String("list_id", result.ListID),
		slog.Int64("rows", result.Rows),
	)
	return nil
}

// isPermanent reports errors that fail the same way on every attempt
func isPermanent(err error) bool {
	var decodeErr *domain.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return true
	case errors.Is(err, domain.ErrObjectNotFound),
		errors.Is(err, domain.ErrObjectTooLarge),
		errors.Is(err, domain.ErrInvalidJob):
		return true
	}
	return false
}
