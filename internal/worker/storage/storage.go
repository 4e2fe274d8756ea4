package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/cuongbtq/list-import/internal/importer"
	"github.com/cuongbtq/list-import/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// Begin opens an import transaction
func (s *Storage) Begin(ctx context.Context) (importer.ListTx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &importTx{tx: tx, logger: s.logger}, nil
}

// FindListByJobID retrieves the list created by a job
func (s *Storage) FindListByJobID(ctx context.Context, jobID string) (*domain.List, error) {
	query := `
		SELECT id, user_id, name, job_id, created_at, updated_at
		FROM lists
		WHERE job_id = $1
	`

	var list domain.List
	if err := s.db.GetContext(ctx, &list, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrListNotFound
		}
		return nil, fmt.Errorf("failed to get list by job: %w", err)
	}
	return &list, nil
}

type importTx struct {
	tx     *sqlx.Tx
	logger *slog.Logger
}

// CreateList inserts the list row. The unique job_id makes a second insert
// for the same job fail with domain.ErrListExists.
func (t *importTx) CreateList(ctx context.Context, list *domain.List) error {
	query := `
		INSERT INTO lists (id, user_id, name, job_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := t.tx.QueryRowxContext(ctx, query, list.ID, list.UserID, list.Name, list.JobID).
		Scan(&list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		if postgresql.IsUniqueViolation(err) {
			t.logger.Info("List already exists for job",
				slog.String("job_id", list.JobID),
			)
			return domain.ErrListExists
		}
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// InsertColumns stores the column specs of a list in one statement
func (t *importTx) InsertColumns(ctx context.Context, listID string, columns []domain.ColumnSpec) error {
	if len(columns) == 0 {
		return nil
	}

	records := make([]domain.ListColumn, len(columns))
	for i, col := range columns {
		records[i] = domain.ListColumn{ListID: listID, ColumnSpec: col}
	}

	query := `
		INSERT INTO list_columns (list_id, name, key, type, display_order)
		VALUES (:list_id, :name, :key, :type, :display_order)
	`
	if _, err := t.tx.NamedExecContext(ctx, query, records); err != nil {
		return fmt.Errorf("failed to insert columns: %w", err)
	}
	return nil
}

type rowRecord struct {
	ListID string `db:"list_id"`
	Data   string `db:"data"`
}

// InsertRows stores a batch of rows in one multi-row statement
func (t *importTx) InsertRows(ctx context.Context, listID string, rows []domain.Row) error {
	if len(rows) == 0 {
		return nil
	}

	records := make([]rowRecord, len(rows))
	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		records[i] = rowRecord{ListID: listID, Data: string(data)}
	}

	query := `
		INSERT INTO list_rows (list_id, data, created_at)
		VALUES (:list_id, :data, NOW())
	`
	if _, err := t.tx.NamedExecContext(ctx, query, records); err != nil {
		return fmt.Errorf("failed to insert rows: %w", err)
	}
	return nil
}

func (t *importTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *importTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}
