package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/list-import/internal/api/dto"
	"github.com/cuongbtq/list-import/internal/api/storage"
	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultListPageSize = 20
	maxListPageSize     = 100
	defaultRowPageSize  = 100
	maxRowPageSize      = 1000
)

func clampPageSize(size, def, max int) int {
	if size <= 0 {
		return def
	}
	if size > max {
		return max
	}
	return size
}

func toListDTO(list domain.List) dto.ListDTO {
	return dto.ListDTO{
		ID:        list.ID,
		UserID:    list.UserID,
		Name:      list.Name,
		JobID:     list.JobID,
		CreatedAt: list.CreatedAt.Format(time.RFC3339),
		UpdatedAt: list.UpdatedAt.Format(time.RFC3339),
	}
}

// ListLists handles GET /api/v1/lists
// Lists imported lists newest first with keyset pagination
func (h *ListHandler) ListLists(c *gin.Context) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	pageSize := clampPageSize(req.PageSize, defaultListPageSize, maxListPageSize)

	cursor, err := DecodeListCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	lists, err := h.lists.ListLists(c.Request.Context(), storage.ListFilter{
		UserID:   req.UserID,
		PageSize: pageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list lists", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list lists",
		})
		return
	}

	hasMore := len(lists) > pageSize
	if hasMore {
		lists = lists[:pageSize]
	}

	resp := dto.ListsResponse{Lists: make([]dto.ListDTO, len(lists))}
	for i, list := range lists {
		resp.Lists[i] = toListDTO(list)
	}

	if hasMore {
		last := lists[len(lists)-1]
		resp.NextCursor = EncodeListCursor(&storage.ListCursor{
			CreatedAt: last.CreatedAt,
			ListID:    last.ID,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// GetList handles GET /api/v1/lists/:list_id
// Returns the list with its columns in display order
func (h *ListHandler) GetList(c *gin.Context) {
	listID, ok := h.listID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	list, err := h.lists.GetList(ctx, listID)
	if err != nil {
		h.respondListError(c, listID, err)
		return
	}

	columns, err := h.lists.GetColumns(ctx, listID)
	if err != nil {
		h.logger.Error("Failed to get columns",
			slog.String("list_id", listID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get list",
		})
		return
	}

	resp := dto.ListDetailResponse{
		ListDTO: toListDTO(*list),
		Columns: make([]dto.ColumnDTO, len(columns)),
	}
	for i, col := range columns {
		resp.Columns[i] = dto.ColumnDTO{
			Name:  col.Name,
			Key:   col.Key,
			Type:  col.Type,
			Order: col.Order,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ListRows handles GET /api/v1/lists/:list_id/rows
// Pages through the list's rows in import order
func (h *ListHandler) ListRows(c *gin.Context) {
	listID, ok := h.listID(c)
	if !ok {
		return
	}

	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}
	pageSize := clampPageSize(req.PageSize, defaultRowPageSize, maxRowPageSize)

	afterID, err := DecodeRowCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.lists.GetList(ctx, listID); err != nil {
		h.respondListError(c, listID, err)
		return
	}

	rows, err := h.lists.ListRows(ctx, listID, afterID, pageSize)
	if err != nil {
		h.logger.Error("Failed to list rows",
			slog.String("list_id", listID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list rows",
		})
		return
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}

	resp := dto.RowsResponse{Rows: make([]dto.RowDTO, len(rows))}
	for i, row := range rows {
		resp.Rows[i] = dto.RowDTO{ID: row.ID, Data: json.RawMessage(row.Data)}
	}
	if hasMore {
		resp.NextCursor = EncodeRowCursor(rows[len(rows)-1].ID)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ListHandler) listID(c *gin.Context) (string, bool) {
	listID := c.Param("list_id")
	if _, err := uuid.Parse(listID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "list_id must be a valid UUID",
		})
		return "", false
	}
	return listID, true
}

func (h *ListHandler) respondListError(c *gin.Context, listID string, err error) {
	if errors.Is(err, domain.ErrListNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "List not found",
		})
		return
	}

	h.logger.Error("Failed to get list",
		slog.String("list_id", listID),
		slog.String("error", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to get list",
	})
}
