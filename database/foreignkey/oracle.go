package foreignkey

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/galaplate/fixtures/database"
)

const oracleForeignKeysSQL = `
	SELECT constraint_name, owner, table_name
	FROM user_constraints
	WHERE constraint_type = 'R'
		AND status = 'ENABLED'
	ORDER BY table_name, constraint_name`

// Oracle toggles referential constraints in place; the server keeps their definition.
type Oracle struct{}

func (Oracle) Introspect(ctx context.Context, conn *database.Connection) ([]Constraint, error) {
	return database.Query(ctx, conn, oracleForeignKeysSQL, func(rows *sql.Rows) (Constraint, error) {
		var c Constraint
		err := rows.Scan(&c.Name, &c.Schema, &c.Table)
		return c, err
	})
}

func (Oracle) DisableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DISABLE CONSTRAINT %s",
		quoteOracle(c.Schema, c.Table), quoteOracle(c.Name))}
}

func (Oracle) EnableStatements(c Constraint) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s ENABLE CONSTRAINT %s",
		quoteOracle(c.Schema, c.Table), quoteOracle(c.Name))}
}

func quoteOracle(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			quoted = append(quoted, `"`+strings.ReplaceAll(p, `"`, `""`)+`"`)
		}
	}
	return strings.Join(quoted, ".")
}
