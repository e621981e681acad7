package foreignkey

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/galaplate/fixtures/database"
)

const backquote = "`"

// Column lists are quoted by the server so the captured text can be reused as is.
var mysqlForeignKeysSQL = `
	SELECT
		kcu.CONSTRAINT_NAME,
		kcu.TABLE_SCHEMA,
		kcu.TABLE_NAME,
		GROUP_CONCAT(CONCAT('` + backquote + `', REPLACE(kcu.COLUMN_NAME, '` + backquote + `', '` + backquote + backquote + `'), '` + backquote + `')
			ORDER BY kcu.ORDINAL_POSITION SEPARATOR ', ') AS columns,
		kcu.REFERENCED_TABLE_SCHEMA,
		kcu.REFERENCED_TABLE_NAME,
		GROUP_CONCAT(CONCAT('` + backquote + `', REPLACE(kcu.REFERENCED_COLUMN_NAME, '` + backquote + `', '` + backquote + backquote + `'), '` + backquote + `')
			ORDER BY kcu.ORDINAL_POSITION SEPARATOR ', ') AS referenced_columns,
		rc.UPDATE_RULE,
		rc.DELETE_RULE
	FROM information_schema.KEY_COLUMN_USAGE kcu
	JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
		ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
		AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		AND rc.TABLE_NAME = kcu.TABLE_NAME
	WHERE kcu.CONSTRAINT_SCHEMA = DATABASE()
		AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
	GROUP BY kcu.CONSTRAINT_NAME, kcu.TABLE_SCHEMA, kcu.TABLE_NAME,
		kcu.REFERENCED_TABLE_SCHEMA, kcu.REFERENCED_TABLE_NAME,
		rc.UPDATE_RULE, rc.DELETE_RULE
	ORDER BY kcu.TABLE_NAME, kcu.CONSTRAINT_NAME`

// MySQL drops foreign keys and recreates them from information_schema.
type MySQL struct{}

func (MySQL) Introspect(ctx context.Context, conn *database.Connection) ([]Constraint, error) {
	return database.Query(ctx, conn, mysqlForeignKeysSQL, scanMySQLConstraint)
}

func (MySQL) DisableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s",
		quoteMySQL(c.Schema, c.Table), quoteMySQL(c.Name))}
}

func (MySQL) EnableStatements(c Constraint) []string {
	return []string{mysqlAddConstraint(c)}
}

// MariaDB shares MySQL's catalog but tolerates a key that is already gone.
type MariaDB struct{}

func (MariaDB) Introspect(ctx context.Context, conn *database.Connection) ([]Constraint, error) {
	return database.Query(ctx, conn, mysqlForeignKeysSQL, scanMySQLConstraint)
}

func (MariaDB) DisableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY IF EXISTS %s",
		quoteMySQL(c.Schema, c.Table), quoteMySQL(c.Name))}
}

func (MariaDB) EnableStatements(c Constraint) []string {
	return []string{mysqlAddConstraint(c)}
}

func scanMySQLConstraint(rows *sql.Rows) (Constraint, error) {
	var c Constraint
	err := rows.Scan(
		&c.Name,
		&c.Schema,
		&c.Table,
		&c.Columns,
		&c.ReferencedSchema,
		&c.ReferencedTable,
		&c.ReferencedColumns,
		&c.UpdateRule,
		&c.DeleteRule,
	)
	return c, err
}

func mysqlAddConstraint(c Constraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE %s ON DELETE %s",
		quoteMySQL(c.Schema, c.Table),
		quoteMySQL(c.Name),
		c.Columns,
		quoteMySQL(c.ReferencedSchema, c.ReferencedTable),
		c.ReferencedColumns,
		c.UpdateRule,
		c.DeleteRule,
	)
}

// quoteMySQL quotes and dot-joins the non-empty parts of a name.
func quoteMySQL(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, backquote+strings.ReplaceAll(p, backquote, backquote+backquote)+backquote)
	}
	return strings.Join(quoted, ".")
}
