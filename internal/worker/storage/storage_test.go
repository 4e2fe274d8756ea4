package storage

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStorage(sqlx.NewDb(db, "postgres"), logger), mock
}

func TestStorage_CreateList(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		queryErr    error
		expectedErr error
	}{
		{name: "created"},
		{
			name:        "duplicate job",
			queryErr:    &pq.Error{Code: "23505", Constraint: "lists_job_id_key"},
			expectedErr: domain.ErrListExists,
		},
		{
			name:     "other database error",
			queryErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)

			mock.ExpectBegin()
			query := mock.ExpectQuery(`INSERT INTO lists`).
				WithArgs("list-1", "user-1", "Customers", "job-1")
			if tt.queryErr != nil {
				query.WillReturnError(tt.queryErr)
			} else {
				query.WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
			}

			tx, err := s.Begin(context.Background())
			require.NoError(t, err)

			list := &domain.List{ID: "list-1", UserID: "user-1", Name: "Customers", JobID: "job-1"}
			err = tx.CreateList(context.Background(), list)

			switch {
			case tt.queryErr == nil:
				require.NoError(t, err)
				assert.Equal(t, now, list.CreatedAt)
				assert.Equal(t, now, list.UpdatedAt)
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
			default:
				require.Error(t, err)
				assert.NotErrorIs(t, err, domain.ErrListExists)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStorage_InsertColumns(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO list_columns`).
		WithArgs(
			"list-1", "Name", "name", "text", 0,
			"list-1", "Tags", "tags", "structured", 1,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	tx, err := s.Begin(context.Background())
	require.NoError(t, err)

	err = tx.InsertColumns(context.Background(), "list-1", []domain.ColumnSpec{
		{Name: "Name", Key: "name", Type: domain.ColumnTypeText, Order: 0},
		{Name: "Tags", Key: "tags", Type: domain.ColumnTypeStructured, Order: 1},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_InsertRows(t *testing.T) {
	t.Run("multi-row insert", func(t *testing.T) {
		s, mock := newMockStorage(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO list_rows`).
			WithArgs(
				"list-1", `{"name":"alice","tags":null}`,
				"list-1", `{"name":"bob","tags":["vip"]}`,
			).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		tx, err := s.Begin(context.Background())
		require.NoError(t, err)

		err = tx.InsertRows(context.Background(), "list-1", []domain.Row{
			{"name": "alice", "tags": nil},
			{"name": "bob", "tags": []any{"vip"}},
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		s, mock := newMockStorage(t)

		mock.ExpectBegin()

		tx, err := s.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.InsertRows(context.Background(), "list-1", nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure", func(t *testing.T) {
		s, mock := newMockStorage(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO list_rows`).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		tx, err := s.Begin(context.Background())
		require.NoError(t, err)

		err = tx.InsertRows(context.Background(), "list-1", []domain.Row{{"name": "alice"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStorage_FindListByJobID(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		s, mock := newMockStorage(t)

		mock.ExpectQuery(`SELECT (.+) FROM lists WHERE job_id = \$1`).
			WithArgs("job-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "job_id", "created_at", "updated_at"}).
				AddRow("list-1", "user-1", "Customers", "job-1", now, now))

		list, err := s.FindListByJobID(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, "list-1", list.ID)
		assert.Equal(t, "Customers", list.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockStorage(t)

		mock.ExpectQuery(`SELECT (.+) FROM lists`).
			WithArgs("job-1").
			WillReturnError(sql.ErrNoRows)

		_, err := s.FindListByJobID(context.Background(), "job-1")
		assert.ErrorIs(t, err, domain.ErrListNotFound)
	})
}
