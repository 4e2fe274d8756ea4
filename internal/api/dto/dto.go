package dto

import (
	"encoding/json"

	"github.com/cuongbtq/list-import/internal/domain"
)

// CreateImportRequest is the body of POST /api/v1/imports. JobID is optional;
// a client that retries with the same JobID gets the existing job back.
type CreateImportRequest = domain.ImportJob

type ImportStatusResponse struct {
	JobID string `json:"jobId"`
	domain.JobStatus
}

type PageRequest struct {
	UserID   string `form:"user_id"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	JobID     string `json:"jobId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type ListsResponse struct {
	Lists      []ListDTO `json:"lists"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

type ColumnDTO struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Type  string `json:"type"`
	Order int    `json:"order"`
}

type ListDetailResponse struct {
	ListDTO
	Columns []ColumnDTO `json:"columns"`
}

type RowDTO struct {
	ID   int64           `json:"id"`
	Data json.RawMessage `json:"data"`
}

type RowsResponse struct {
	Rows       []RowDTO `json:"rows"`
	NextCursor string   `json:"nextCursor,omitempty"`
}
