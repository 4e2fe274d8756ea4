package domain

import "time"

// List is the persisted entity an import produces
type List struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	JobID     string    `db:"job_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ListColumn is a persisted ColumnSpec
type ListColumn struct {
	ID     int64  `db:"id"`
	ListID string `db:"list_id"`
	ColumnSpec
}

// Row maps a column key to its decoded value: nil, a string, or a parsed
// JSON object/array.
type Row map[string]any

// ImportResult is returned by a completed import
type ImportResult struct {
	ListID    string
	Duplicate bool
	Rows      int64
}
