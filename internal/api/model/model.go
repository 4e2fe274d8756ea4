package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ListRow is one stored row of an imported list
type ListRow struct {
	ID        int64          `db:"id"`
	ListID    string         `db:"list_id"`
	Data      types.JSONText `db:"data"`
	CreatedAt time.Time      `db:"created_at"`
}
