package foreignkey

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/galaplate/fixtures/database"
	"github.com/jackc/pgx/v5"
)

// Inherited keys on partitions are owned by the parent and are left alone.
const postgresForeignKeysSQL = `
	SELECT
		con.conname,
		nsp.nspname,
		cls.relname,
		pg_catalog.pg_get_constraintdef(con.oid, true)
	FROM pg_catalog.pg_constraint con
	JOIN pg_catalog.pg_class cls ON cls.oid = con.conrelid
	JOIN pg_catalog.pg_namespace nsp ON nsp.oid = cls.relnamespace
	WHERE con.contype = 'f'
		AND con.conislocal
		AND nsp.nspname = ANY (pg_catalog.current_schemas(false))
	ORDER BY nsp.nspname, cls.relname, con.conname`

// PostgreSQL drops foreign keys and re-adds them from the server's own
// definition text, which already carries the actions and deferrability.
type PostgreSQL struct{}

func (PostgreSQL) Introspect(ctx context.Context, conn *database.Connection) ([]Constraint, error) {
	return database.Query(ctx, conn, postgresForeignKeysSQL, func(rows *sql.Rows) (Constraint, error) {
		var c Constraint
		err := rows.Scan(&c.Name, &c.Schema, &c.Table, &c.Definition)
		return c, err
	})
}

func (PostgreSQL) DisableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
		quotePostgres(c.Schema, c.Table), quotePostgres(c.Name))}
}

func (PostgreSQL) EnableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s",
		quotePostgres(c.Schema, c.Table), quotePostgres(c.Name), c.Definition)}
}

func quotePostgres(parts ...string) string {
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id.Sanitize()
}
