// Package status keeps the pollable lifecycle record of each import job in Redis.
//
// Every write refreshes a fixed expiry so abandoned jobs age out. Updates are
// read-merge-write and not atomic: concurrent writers for one job race and the
// last one wins. Only one worker owns a job's list transaction at a time, so
// the worst outcome is a stale progress count.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a status record lives after its last write
	DefaultTTL = 24 * time.Hour

	// DefaultKeyPrefix namespaces status keys
	DefaultKeyPrefix = "import-status:"
)

// Config holds status store configuration
type Config struct {
	KeyPrefix string
	TTL       time.Duration
}

// Store is the Redis-backed job status store
type Store struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewStore creates a new status store
func NewStore(client redis.Cmdable, cfg Config, logger *slog.Logger) *Store {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Store{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Store) key(jobID string) string {
	return s.keyPrefix + jobID
}

// Get returns the job status, or nil when there is none. Read failures are
// logged and reported as no status.
func (s *Store) Get(ctx context.Context, jobID string) *domain.JobStatus {
	status, err := s.read(ctx, jobID)
	if err != nil {
		s.logger.Warn("Failed to read job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return status
}

func (s *Store) read(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	data, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var status domain.JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job status: %w", err)
	}
	return &status, nil
}

// Update merges the given fields into the job's status. A job without a
// record starts out queued.
func (s *Store) Update(ctx context.Context, jobID string, update domain.StatusUpdate) error {
	current := s.Get(ctx, jobID)
	return s.write(ctx, jobID, current, update)
}

func (s *Store) write(ctx context.Context, jobID string, current *domain.JobStatus, update domain.StatusUpdate) error {
	next := domain.JobStatus{State: domain.JobStateQueued}
	if current != nil {
		next = *current
	}
	update.Apply(&next)

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: marshal job status: %v", domain.ErrStatusStore, err)
	}

	if err := s.client.Set(ctx, s.key(jobID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: write job status %s: %v", domain.ErrStatusStore, jobID, err)
	}
	return nil
}

// MarkQueued records a freshly accepted job, replacing any earlier record
func (s *Store) MarkQueued(ctx context.Context, jobID string) error {
	return s.write(ctx, jobID, nil, domain.StatusUpdate{})
}

// MarkRunning moves the job to running. A succeeded job is left alone, and a
// job that is already running keeps its original start time.
func (s *Store) MarkRunning(ctx context.Context, jobID string) error {
	current := s.Get(ctx, jobID)
	if current != nil && current.State == domain.JobStateSucceeded {
		return nil
	}

	state := domain.JobStateRunning
	update := domain.StatusUpdate{State: &state}
	if current == nil || current.State != domain.JobStateRunning || current.StartedAt == nil {
		now := s.now()
		empty := ""
		zero := int64(0)
		update.StartedAt = &now
		update.Error = &empty
		update.ProcessedRows = &zero
		if current != nil {
			restarted := *current
			restarted.FinishedAt = nil
			current = &restarted
		}
	}
	return s.write(ctx, jobID, current, update)
}

// ReportProgress records the number of rows processed so far
func (s *Store) ReportProgress(ctx context.Context, jobID string, rows int64) error {
	return s.Update(ctx, jobID, domain.StatusUpdate{ProcessedRows: &rows})
}

// MarkSucceeded records the resulting list and finishes the job
func (s *Store) MarkSucceeded(ctx context.Context, jobID, listID string) error {
	state := domain.JobStateSucceeded
	now := s.now()
	empty := ""
	return s.Update(ctx, jobID, domain.StatusUpdate{
		State:      &state,
		ListID:     &listID,
		Error:      &empty,
		FinishedAt: &now,
	})
}

// MarkFailed records the failure message and finishes the job. A succeeded
// job keeps its outcome: its list is committed whatever a later attempt hit.
func (s *Store) MarkFailed(ctx context.Context, jobID, errorText string) error {
	current := s.Get(ctx, jobID)
	if current != nil && current.State == domain.JobStateSucceeded {
		return nil
	}

	state := domain.JobStateFailed
	now := s.now()
	return s.write(ctx, jobID, current, domain.StatusUpdate{
		State:      &state,
		Error:      &errorText,
		FinishedAt: &now,
	})
}

// IsCompleted reports whether the job reached a terminal state
func (s *Store) IsCompleted(ctx context.Context, jobID string) bool {
	return s.Get(ctx, jobID).IsTerminal()
}
