// Package operation composes fixture operations with foreign key suspension.
package operation

import (
	"context"
	"fmt"

	"github.com/galaplate/fixtures/database"
	"github.com/galaplate/fixtures/database/foreignkey"
)

// Operation is a unit of work run against a live connection, such as loading
// or clearing a fixture.
type Operation interface {
	Execute(ctx context.Context, conn *database.Connection) error
}

// Func adapts a function to Operation.
type Func func(ctx context.Context, conn *database.Connection) error

func (f Func) Execute(ctx context.Context, conn *database.Connection) error {
	return f(ctx, conn)
}

// Exec returns an Operation that batch-executes statements.
func Exec(statements ...string) Operation {
	return Func(func(ctx context.Context, conn *database.Connection) error {
		return database.BatchExecute(ctx, conn, statements)
	})
}

type step struct {
	label string
	run   func(ctx context.Context, conn *database.Connection) error
}

// Composite runs its steps in order and stops at the first failure.
type Composite struct {
	steps []step
}

func (c *Composite) Execute(ctx context.Context, conn *database.Connection) error {
	for _, s := range c.steps {
		if err := s.run(ctx, conn); err != nil {
			return fmt.Errorf("%s: %w", s.label, err)
		}
	}
	return nil
}

// Steps returns the step labels in execution order.
func (c *Composite) Steps() []string {
	labels := make([]string, len(c.steps))
	for i, s := range c.steps {
		labels[i] = s.label
	}
	return labels
}

// Build brackets payload with the managers: every Disable in list order, then
// the payload, then every Enable in the same list order. Without managers the
// payload is returned unchanged.
//
// Enables are not reversed, so managers must not depend on one another.
func Build(payload Operation, managers ...foreignkey.Manager) Operation {
	if len(managers) == 0 {
		return payload
	}

	steps := make([]step, 0, 2*len(managers)+1)
	for i, m := range managers {
		steps = append(steps, step{label: "disable foreign keys " + describe(i, m), run: m.Disable})
	}
	steps = append(steps, step{label: "payload", run: payload.Execute})
	for i, m := range managers {
		steps = append(steps, step{label: "enable foreign keys " + describe(i, m), run: m.Enable})
	}

	return &Composite{steps: steps}
}

func describe(i int, m foreignkey.Manager) string {
	if s, ok := m.(fmt.Stringer); ok {
		return fmt.Sprintf("[%d %s]", i, s.String())
	}
	return fmt.Sprintf("[%d]", i)
}
