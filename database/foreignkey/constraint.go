// Package foreignkey suspends and restores foreign key enforcement around bulk
// fixture operations.
//
// A Manager captures the live set of foreign keys on Disable, removes or
// deactivates them, and recreates or reactivates exactly that set on Enable.
// The SQL differs per engine and lives in a Strategy; Vendor ties a Strategy
// to the URL prefixes and drivers of one engine.
package foreignkey

import (
	"context"

	"github.com/galaplate/fixtures/database"
)

// Constraint is the captured description of one foreign key. Strategies fill
// only the fields they need to drop and later recreate it. Multi-column keys
// keep their column lists as the quoted, comma separated text captured during
// introspection.
type Constraint struct {
	Name              string
	Schema            string
	Table             string
	Columns           string
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumns string
	UpdateRule        string
	DeleteRule        string
	Deferrability     string
	// Definition is the engine's own rendering of the constraint, when it has one.
	Definition string
}

// AllConstraints stands for every constraint of a session. Engines that only
// offer a session-wide switch report it as their single constraint.
var AllConstraints = Constraint{Name: "*"}

// Strategy knows how one database engine lists and toggles foreign keys.
type Strategy interface {
	// Introspect lists every enabled foreign key visible to conn.
	Introspect(ctx context.Context, conn *database.Connection) ([]Constraint, error)

	// DisableStatements returns the DDL that removes or deactivates c.
	DisableStatements(c Constraint) []string

	// EnableStatements returns the DDL that restores c exactly as introspected.
	EnableStatements(c Constraint) []string
}

// Manager suspends foreign key enforcement for one disable/enable cycle.
type Manager interface {
	Disable(ctx context.Context, conn *database.Connection) error
	Enable(ctx context.Context, conn *database.Connection) error
}

func render(constraints []Constraint, fn func(Constraint) []string) []string {
	var statements []string
	for _, c := range constraints {
		statements = append(statements, fn(c)...)
	}
	return statements
}
