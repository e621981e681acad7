package foreignkey

import (
	"context"
	"database/sql"

	"github.com/galaplate/fixtures/database"
)

// HSQLDB, H2 and SQLite only offer a session-wide referential integrity
// switch, so they report AllConstraints instead of individual keys.

type HSQLDB struct{}

func (HSQLDB) Introspect(context.Context, *database.Connection) ([]Constraint, error) {
	return []Constraint{AllConstraints}, nil
}

func (HSQLDB) DisableStatements(Constraint) []string {
	return []string{"SET DATABASE REFERENTIAL INTEGRITY FALSE"}
}

func (HSQLDB) EnableStatements(Constraint) []string {
	return []string{"SET DATABASE REFERENTIAL INTEGRITY TRUE"}
}

type H2 struct{}

func (H2) Introspect(context.Context, *database.Connection) ([]Constraint, error) {
	return []Constraint{AllConstraints}, nil
}

func (H2) DisableStatements(Constraint) []string {
	return []string{"SET REFERENTIAL_INTEGRITY FALSE"}
}

func (H2) EnableStatements(Constraint) []string {
	return []string{"SET REFERENTIAL_INTEGRITY TRUE"}
}

// SQLite ignores the pragma inside a transaction; BatchExecute runs outside one.
// Enforcement is off by default in SQLite, so a session that never turned it
// on reports nothing to disable and is left as it was.
type SQLite struct{}

func (SQLite) Introspect(ctx context.Context, conn *database.Connection) ([]Constraint, error) {
	enabled, err := database.Query(ctx, conn, "PRAGMA foreign_keys", func(rows *sql.Rows) (bool, error) {
		var on int
		err := rows.Scan(&on)
		return on == 1, err
	})
	if err != nil {
		return nil, err
	}
	if len(enabled) == 1 && enabled[0] {
		return []Constraint{AllConstraints}, nil
	}
	return nil, nil
}

func (SQLite) DisableStatements(Constraint) []string {
	return []string{"PRAGMA foreign_keys = OFF"}
}

func (SQLite) EnableStatements(Constraint) []string {
	return []string{"PRAGMA foreign_keys = ON"}
}
