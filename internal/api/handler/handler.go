package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/list-import/internal/api/model"
	"github.com/cuongbtq/list-import/internal/api/storage"
	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/go-playground/validator/v10"
)

// JobPublisher enqueues import jobs for the worker service
type JobPublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// StatusStore is the job status store as seen by the API
type StatusStore interface {
	Get(ctx context.Context, jobID string) *domain.JobStatus
	MarkQueued(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, errorText string) error
}

// ListReader reads imported lists
type ListReader interface {
	GetList(ctx context.Context, listID string) (*domain.List, error)
	GetColumns(ctx context.Context, listID string) ([]domain.ListColumn, error)
	ListLists(ctx context.Context, filter storage.ListFilter) ([]domain.List, error)
	ListRows(ctx context.Context, listID string, afterID int64, pageSize int) ([]model.ListRow, error)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Publisher JobPublisher
	Status    StatusStore
	Lists     ListReader
	Validator *validator.Validate
	Checks    map[string]HealthCheck
}

// ImportHandler handles job intake and status polling
type ImportHandler struct {
	logger    *slog.Logger
	publisher JobPublisher
	status    StatusStore
	validate  *validator.Validate
}

// NewImportHandler creates a new ImportHandler instance
func NewImportHandler(deps *Dependencies) *ImportHandler {
	return &ImportHandler{
		logger:    deps.Logger,
		publisher: deps.Publisher,
		status:    deps.Status,
		validate:  validatorOrDefault(deps.Validator),
	}
}

// ListHandler serves imported lists
type ListHandler struct {
	logger *slog.Logger
	lists  ListReader
}

// NewListHandler creates a new ListHandler instance
func NewListHandler(deps *Dependencies) *ListHandler {
	return &ListHandler{
		logger: deps.Logger,
		lists:  deps.Lists,
	}
}

func validatorOrDefault(v *validator.Validate) *validator.Validate {
	if v != nil {
		return v
	}
	return validator.New(validator.WithRequiredStructEnabled())
}
