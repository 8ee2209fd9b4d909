package models

import (
	"database/sql"
	"time"
)

// Team represents a rugby team
type Team struct {
	ID        int            `db:"id"`
	Name      string         `db:"name"`
	Slug      sql.NullString `db:"slug"`
	CreatedAt time.Time      `db:"created_at"`

	// Source spellings from the alias catalog, not stored on the row
	Aliases []string `db:"-"`
}
