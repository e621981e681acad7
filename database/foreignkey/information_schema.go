package foreignkey

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/galaplate/fixtures/database"
	"github.com/lib/pq"
)

// One row per column pair, in key order; rows of one constraint are adjacent.
// Constraint names are only unique per table on some engines, so every join
// and the ordering carry the constrained table.
const informationSchemaForeignKeysSQL = `
	SELECT DISTINCT
		rc.CONSTRAINT_SCHEMA,
		rc.CONSTRAINT_NAME,
		fk.TABLE_SCHEMA,
		fk.TABLE_NAME,
		fk.COLUMN_NAME,
		pk.TABLE_SCHEMA,
		pk.TABLE_NAME,
		pk.COLUMN_NAME,
		rc.UPDATE_RULE,
		rc.DELETE_RULE,
		tc.IS_DEFERRABLE,
		tc.INITIALLY_DEFERRED,
		fk.ORDINAL_POSITION
	FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
	JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		ON tc.CONSTRAINT_SCHEMA = rc.CONSTRAINT_SCHEMA
		AND tc.CONSTRAINT_NAME = rc.CONSTRAINT_NAME
		AND tc.CONSTRAINT_TYPE = 'FOREIGN KEY'
	JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE fk
		ON fk.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
		AND fk.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		AND fk.TABLE_SCHEMA = tc.TABLE_SCHEMA
		AND fk.TABLE_NAME = tc.TABLE_NAME
	JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE pk
		ON pk.CONSTRAINT_SCHEMA = rc.UNIQUE_CONSTRAINT_SCHEMA
		AND pk.CONSTRAINT_NAME = rc.UNIQUE_CONSTRAINT_NAME
		AND pk.ORDINAL_POSITION = fk.POSITION_IN_UNIQUE_CONSTRAINT
	WHERE LOWER(rc.CONSTRAINT_SCHEMA) NOT IN ('information_schema', 'pg_catalog')
	ORDER BY rc.CONSTRAINT_SCHEMA, fk.TABLE_SCHEMA, fk.TABLE_NAME, rc.CONSTRAINT_NAME, fk.ORDINAL_POSITION`

// InformationSchema works with any engine that implements the SQL standard
// INFORMATION_SCHEMA views and ALTER TABLE ... DROP/ADD CONSTRAINT.
type InformationSchema struct{}

type keyColumn struct {
	constraintSchema string
	constraint       Constraint
	column           string
	referencedColumn string
	position         int
}

func (InformationSchema) Introspect(ctx context.Context, conn *database.Connection) ([]Constraint, error) {
	columns, err := database.Query(ctx, conn, informationSchemaForeignKeysSQL, scanKeyColumn)
	if err != nil {
		return nil, err
	}
	return foldKeyColumns(columns), nil
}

func scanKeyColumn(rows *sql.Rows) (keyColumn, error) {
	var (
		kc                         keyColumn
		deferrable, initiallyDefer sql.NullString
	)

	err := rows.Scan(
		&kc.constraintSchema,
		&kc.constraint.Name,
		&kc.constraint.Schema,
		&kc.constraint.Table,
		&kc.column,
		&kc.constraint.ReferencedSchema,
		&kc.constraint.ReferencedTable,
		&kc.referencedColumn,
		&kc.constraint.UpdateRule,
		&kc.constraint.DeleteRule,
		&deferrable,
		&initiallyDefer,
		&kc.position,
	)
	if err != nil {
		return kc, err
	}

	kc.constraint.Deferrability = deferrability(deferrable.String, initiallyDefer.String)
	return kc, nil
}

func deferrability(deferrable, initiallyDeferred string) string {
	if !strings.EqualFold(deferrable, "YES") {
		return "NOT DEFERRABLE"
	}
	if strings.EqualFold(initiallyDeferred, "YES") {
		return "DEFERRABLE INITIALLY DEFERRED"
	}
	return "DEFERRABLE INITIALLY IMMEDIATE"
}

// foldKeyColumns merges adjacent rows of the same constraint on the same
// table, keeping column order. A key position seen twice in one constraint
// comes from an ambiguous name join and is dropped.
func foldKeyColumns(rows []keyColumn) []Constraint {
	var (
		result []Constraint
		last   string
		seen   map[int]bool
	)

	for _, row := range rows {
		key := strings.Join([]string{
			row.constraintSchema, row.constraint.Schema, row.constraint.Table, row.constraint.Name,
		}, "\x00")
		col := pq.QuoteIdentifier(row.column)
		ref := pq.QuoteIdentifier(row.referencedColumn)

		if len(result) > 0 && key == last {
			if seen[row.position] {
				continue
			}
			seen[row.position] = true

			current := &result[len(result)-1]
			current.Columns += ", " + col
			current.ReferencedColumns += ", " + ref
			continue
		}

		c := row.constraint
		c.Columns = col
		c.ReferencedColumns = ref
		result = append(result, c)
		last = key
		seen = map[int]bool{row.position: true}
	}

	return result
}

func (InformationSchema) DisableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
		quoteStandard(c.Schema, c.Table), quoteStandard(c.Name))}
}

func (InformationSchema) EnableStatements(c Constraint) []string {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE %s ON DELETE %s",
		quoteStandard(c.Schema, c.Table),
		quoteStandard(c.Name),
		c.Columns,
		quoteStandard(c.ReferencedSchema, c.ReferencedTable),
		c.ReferencedColumns,
		c.UpdateRule,
		c.DeleteRule,
	)
	if c.Deferrability != "" {
		stmt += " " + c.Deferrability
	}
	return []string{stmt}
}

func quoteStandard(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			quoted = append(quoted, pq.QuoteIdentifier(p))
		}
	}
	return strings.Join(quoted, ".")
}
