package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/list-import/internal/api/dto"
	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateImport handles POST /api/v1/imports
// Records the job as queued and publishes it for the worker service
func (h *ImportHandler) CreateImport(c *gin.Context) {
	var req dto.CreateImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.Warn("Invalid import job", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid import job",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	logger := h.logger.With(slog.String("job_id", req.JobID))

	// a retried request returns the known job; only a failed job is sent again
	if existing := h.status.Get(ctx, req.JobID); existing != nil && existing.State != domain.JobStateFailed {
		logger.Info("Import already submitted", slog.String("state", existing.State))
		c.JSON(http.StatusOK, dto.ImportStatusResponse{JobID: req.JobID, JobStatus: *existing})
		return
	}

	if err := h.status.MarkQueued(ctx, req.JobID); err != nil {
		logger.Error("Failed to record job status", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to record job status",
		})
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		logger.Error("Failed to encode job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to encode job",
		})
		return
	}

	if err := h.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		logger.Error("Failed to publish job", slog.String("error", err.Error()))
		if markErr := h.status.MarkFailed(ctx, req.JobID, "failed to enqueue job"); markErr != nil {
			logger.Error("Failed to mark job failed", slog.String("error", markErr.Error()))
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to enqueue job",
		})
		return
	}

	logger.Info("Import job enqueued",
		slog.String("user_id", req.UserID),
		slog.String("container_id", req.ObjectRef.ContainerID),
		slog.String("key", req.ObjectRef.Key),
	)

	status := domain.JobStatus{State: domain.JobStateQueued}
	if current := h.status.Get(ctx, req.JobID); current != nil {
		status = *current
	}
	c.JSON(http.StatusAccepted, dto.ImportStatusResponse{JobID: req.JobID, JobStatus: status})
}

// GetImport handles GET /api/v1/imports/:job_id
// Returns the job's status record
func (h *ImportHandler) GetImport(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	status := h.status.Get(c.Request.Context(), jobID)
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Import job not found",
		})
		return
	}

	c.JSON(http.StatusOK, dto.ImportStatusResponse{JobID: jobID, JobStatus: *status})
}
