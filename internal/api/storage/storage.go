package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/list-import/internal/api/model"
	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/jmoiron/sqlx"
)

// Storage serves read access to imported lists
type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) GetList(ctx context.Context, listID string) (*domain.List, error) {
	var list domain.List
	query := `
		SELECT id, user_id, name, job_id, created_at, updated_at
		FROM lists
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &list, query, listID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrListNotFound
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	return &list, nil
}

func (s *Storage) GetColumns(ctx context.Context, listID string) ([]domain.ListColumn, error) {
	query := `
		SELECT id, list_id, name, key, type, display_order
		FROM list_columns
		WHERE list_id = $1
		ORDER BY display_order, id
	`

	var columns []domain.ListColumn
	if err := s.db.SelectContext(ctx, &columns, query, listID); err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	return columns, nil
}

type ListFilter struct {
	UserID   string
	PageSize int
	Cursor   *ListCursor
}

type ListCursor struct {
	CreatedAt time.Time
	ListID    string
}

// ListLists returns up to PageSize+1 lists, newest first, so the caller can
// tell whether another page exists
func (s *Storage) ListLists(ctx context.Context, filter ListFilter) ([]domain.List, error) {
	query := `
        SELECT id, user_id, name, job_id, created_at, updated_at
        FROM lists
        WHERE 1=1
    `
	args := []interface{}{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ListID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, id DESC"

	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var lists []domain.List
	if err := s.db.SelectContext(ctx, &lists, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}

	return lists, nil
}

// ListRows returns up to pageSize+1 rows of a list in insertion order,
// starting after the row id afterID
func (s *Storage) ListRows(ctx context.Context, listID string, afterID int64, pageSize int) ([]model.ListRow, error) {
	query := `
		SELECT id, list_id, data, created_at
		FROM list_rows
		WHERE list_id = $1 AND id > $2
		ORDER BY id
		LIMIT $3
	`

	var rows []model.ListRow
	if err := s.db.SelectContext(ctx, &rows, query, listID, afterID, pageSize+1); err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}

	return rows, nil
}
