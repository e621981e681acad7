package foreignkey

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/galaplate/fixtures/database"
)

// Names come back through QUOTENAME and are used verbatim in DDL.
const mssqlForeignKeysSQL = `
	SELECT
		QUOTENAME(fk.name),
		QUOTENAME(OBJECT_SCHEMA_NAME(fk.parent_object_id)),
		QUOTENAME(OBJECT_NAME(fk.parent_object_id))
	FROM sys.foreign_keys fk
	WHERE fk.is_disabled = 0
	ORDER BY OBJECT_SCHEMA_NAME(fk.parent_object_id), OBJECT_NAME(fk.parent_object_id), fk.name`

// MSSQL switches constraint checking off and back on without dropping anything.
type MSSQL struct{}

func (MSSQL) Introspect(ctx context.Context, conn *database.Connection) ([]Constraint, error) {
	return database.Query(ctx, conn, mssqlForeignKeysSQL, func(rows *sql.Rows) (Constraint, error) {
		var c Constraint
		err := rows.Scan(&c.Name, &c.Schema, &c.Table)
		return c, err
	})
}

func (MSSQL) DisableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s.%s NOCHECK CONSTRAINT %s", c.Schema, c.Table, c.Name)}
}

// WITH CHECK revalidates existing rows so the constraint is trusted again.
func (MSSQL) EnableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s.%s WITH CHECK CHECK CONSTRAINT %s", c.Schema, c.Table, c.Name)}
}
