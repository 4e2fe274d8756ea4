// Package importer loads one import job into a new list inside a single
// database transaction.
//
// Rows are pulled from the decoder one at a time and buffered until a batch
// is full; the batch is written before the next row is pulled, so at most one
// batch of rows is held in memory ahead of the database regardless of the
// source size. Retried or concurrent deliveries of the same job are resolved
// by the unique job id on the list row: the loser of that race returns the
// existing list as a duplicate and writes nothing.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cuongbtq/list-import/internal/decoder"
	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/cuongbtq/list-import/shared/objectstore"
	"github.com/google/uuid"
)

// Defaults for Config fields left at zero
const (
	DefaultBatchSize        = 500
	DefaultProgressInterval = 1000
	DefaultMaxSourceBytes   = 200 << 20
)

// Source opens and deletes remote objects
type Source interface {
	Open(ctx context.Context, containerID, key string, maxBytes int64) (*objectstore.Object, error)
	Delete(ctx context.Context, containerID, key string) error
}

// ListStore persists lists and their rows
type ListStore interface {
	Begin(ctx context.Context) (ListTx, error)
	FindListByJobID(ctx context.Context, jobID string) (*domain.List, error)
}

// ListTx is one import transaction. CreateList returns domain.ErrListExists
// when a list for the same job id is already committed.
type ListTx interface {
	CreateList(ctx context.Context, list *domain.List) error
	InsertColumns(ctx context.Context, listID string, columns []domain.ColumnSpec) error
	InsertRows(ctx context.Context, listID string, rows []domain.Row) error
	Commit() error
	Rollback() error
}

// StatusStore records job progress for pollers
type StatusStore interface {
	Get(ctx context.Context, jobID string) *domain.JobStatus
	MarkRunning(ctx context.Context, jobID string) error
	ReportProgress(ctx context.Context, jobID string, rows int64) error
	MarkSucceeded(ctx context.Context, jobID, listID string) error
	MarkFailed(ctx context.Context, jobID, errorText string) error
}

// Config holds import tuning
type Config struct {
	BatchSize               int
	ProgressInterval        int64
	MaxSourceBytes          int64
	DeleteSourceAfterImport bool
}

// Importer runs import jobs
type Importer struct {
	source Source
	store  ListStore
	status StatusStore
	cfg    Config
	logger *slog.Logger
}

// New creates a new Importer
func New(source Source, store ListStore, status StatusStore, cfg Config, logger *slog.Logger) *Importer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if cfg.MaxSourceBytes <= 0 {
		cfg.MaxSourceBytes = DefaultMaxSourceBytes
	}
	return &Importer{
		source: source,
		store:  store,
		status: status,
		cfg:    cfg,
		logger: logger,
	}
}

// Run imports the job. A job whose list already exists returns that list with
// Duplicate set and writes nothing to the database.
func (im *Importer) Run(ctx context.Context, job domain.ImportJob) (*domain.ImportResult, error) {
	logger := im.logger.With(slog.String("job_id", job.JobID))

	if err := im.status.MarkRunning(ctx, job.JobID); err != nil {
		logger.Warn("Failed to mark job running",
			slog.String("error", err.Error()),
		)
	}

	result, err := im.run(ctx, job, logger)
	if err != nil {
		logger.Error("Import failed",
			slog.String("error", err.Error()),
		)
		if markErr := im.status.MarkFailed(ctx, job.JobID, err.Error()); markErr != nil {
			logger.Error("Failed to mark job failed",
				slog.String("error", markErr.Error()),
			)
		}
		return nil, err
	}

	if result.Duplicate {
		logger.Info("Job already imported, skipping",
			slog.String("list_id", result.ListID),
		)
		im.finishDuplicate(ctx, job.JobID, result.ListID, logger)
		return result, nil
	}

	logger.Info("Import completed",
		slog.String("list_id", result.ListID),
		slog.Int64("rows", result.Rows),
	)

	if err := im.status.MarkSucceeded(ctx, job.JobID, result.ListID); err != nil {
		return result, fmt.Errorf("mark job succeeded: %w", err)
	}

	if im.cfg.DeleteSourceAfterImport {
		ref := job.ObjectRef
		if err := im.source.Delete(ctx, ref.ContainerID, ref.Key); err != nil {
			logger.Warn("Failed to delete source object",
				slog.String("container_id", ref.ContainerID),
				slog.String("key", ref.Key),
				slog.String("error", err.Error()),
			)
		}
	}

	return result, nil
}

func (im *Importer) run(ctx context.Context, job domain.ImportJob, logger *slog.Logger) (*domain.ImportResult, error) {
	ref := job.ObjectRef
	obj, err := im.source.Open(ctx, ref.ContainerID, ref.Key, im.cfg.MaxSourceBytes)
	if err != nil {
		// a redelivery may arrive after the source was deleted on success
		if errors.Is(err, domain.ErrObjectNotFound) {
			if existing, findErr := im.store.FindListByJobID(ctx, job.JobID); findErr == nil {
				return &domain.ImportResult{ListID: existing.ID, Duplicate: true}, nil
			}
		}
		return nil, fmt.Errorf("open source object: %w", err)
	}
	defer obj.Body.Close()

	logger.Debug("Source object opened",
		slog.String("container_id", ref.ContainerID),
		slog.String("key", ref.Key),
		slog.Int64("size", obj.Size),
	)

	tx, err := im.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	done := false
	rollback := func() {
		if done {
			return
		}
		done = true
		if err := tx.Rollback(); err != nil {
			logger.Warn("Failed to roll back import transaction",
				slog.String("error", err.Error()),
			)
		}
	}
	defer rollback()

	list := &domain.List{
		ID:     uuid.NewString(),
		UserID: job.UserID,
		Name:   job.ListName,
		JobID:  job.JobID,
	}
	if err := tx.CreateList(ctx, list); err != nil {
		if !errors.Is(err, domain.ErrListExists) {
			return nil, fmt.Errorf("create list: %w", err)
		}
		// the failed insert poisons the transaction, look the winner up outside it
		rollback()
		existing, err := im.store.FindListByJobID(ctx, job.JobID)
		if err != nil {
			return nil, fmt.Errorf("find existing list: %w", err)
		}
		return &domain.ImportResult{ListID: existing.ID, Duplicate: true}, nil
	}

	if err := tx.InsertColumns(ctx, list.ID, job.Columns); err != nil {
		return nil, fmt.Errorf("insert columns: %w", err)
	}

	rows, err := im.loadRows(ctx, tx, list.ID, job, obj.Body, logger)
	if err != nil {
		return nil, err
	}

	done = true
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	im.reportProgress(ctx, job.JobID, rows, logger)

	return &domain.ImportResult{ListID: list.ID, Rows: rows}, nil
}

// loadRows streams decoded rows into the transaction in batches and returns
// the number of rows written
func (im *Importer) loadRows(ctx context.Context, tx ListTx, listID string, job domain.ImportJob, body io.Reader, logger *slog.Logger) (int64, error) {
	dec := decoder.New(body, job.Columns, job.FirstRowIsHeader)
	batch := make([]domain.Row, 0, im.cfg.BatchSize)
	var processed int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := tx.InsertRows(ctx, listID, batch); err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
		logger.Debug("Batch inserted",
			slog.Int("batch_rows", len(batch)),
			slog.Int64("processed_rows", processed),
		)
		batch = batch[:0]
		return nil
	}

	for {
		row, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return processed, fmt.Errorf("decode rows: %w", err)
		}

		batch = append(batch, row)
		processed++

		if len(batch) >= im.cfg.BatchSize {
			if err := flush(); err != nil {
				return processed, err
			}
		}
		if processed%im.cfg.ProgressInterval == 0 {
			im.reportProgress(ctx, job.JobID, processed, logger)
		}
	}

	if err := flush(); err != nil {
		return processed, err
	}
	return processed, nil
}

func (im *Importer) reportProgress(ctx context.Context, jobID string, rows int64, logger *slog.Logger) {
	if err := im.status.ReportProgress(ctx, jobID, rows); err != nil {
		logger.Warn("Failed to report progress",
			slog.Int64("processed_rows", rows),
			slog.String("error", err.Error()),
		)
	}
}

// finishDuplicate records success for a job whose list is already committed
// but whose status never reached a final state, e.g. because the owning
// worker failed to write it. The unique job id only conflicts with a
// committed list, so the outcome is known. Final states are left alone.
func (im *Importer) finishDuplicate(ctx context.Context, jobID, listID string, logger *slog.Logger) {
	if im.status.Get(ctx, jobID).IsTerminal() {
		return
	}

	logger.Warn("Recording success for already imported job",
		slog.String("list_id", listID),
	)
	if err := im.status.MarkSucceeded(ctx, jobID, listID); err != nil {
		logger.Error("Failed to record job success",
			slog.String("error", err.Error()),
		)
	}
}
