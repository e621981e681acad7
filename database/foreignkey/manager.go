package foreignkey

import (
	"context"
	"fmt"
	"sync"

	"github.com/galaplate/fixtures/database"
	"github.com/galaplate/fixtures/logger"
)

// state is either enabled{} or disabled{...}.
type state interface {
	isState()
}

type enabled struct{}

type disabled struct {
	constraints []Constraint
}

func (enabled) isState()  {}
func (disabled) isState() {}

// VendorManager runs the disable/enable protocol with one Strategy. It is
// meant for a single cycle at a time; calls are serialized.
type VendorManager struct {
	mu       sync.Mutex
	name     string
	strategy Strategy
	state    state
}

// NewVendorManager returns an enabled manager that runs strategy and reports itself as name.
func NewVendorManager(name string, strategy Strategy) *VendorManager {
	return &VendorManager{
		name:     name,
		strategy: strategy,
		state:    enabled{},
	}
}

func (m *VendorManager) String() string {
	return m.name
}

// Disable captures the enabled foreign keys and removes or deactivates them.
// When the DDL fails the capture is kept, so Enable can still restore it.
func (m *VendorManager) Disable(ctx context.Context, conn *database.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.(type) {
	case disabled:
		return &IllegalStateError{Manager: m.name, Reason: "already disabled"}
	case enabled:
	}

	constraints, err := m.strategy.Introspect(ctx, conn)
	if err != nil {
		return fmt.Errorf("%s: introspect foreign keys: %w", m.name, err)
	}
	m.state = disabled{constraints: constraints}

	if err := database.BatchExecute(ctx, conn, render(constraints, m.strategy.DisableStatements)); err != nil {
		logger.Error("failed to disable foreign keys", map[string]any{
			"vendor":      m.name,
			"constraints": len(constraints),
		})
		return fmt.Errorf("%s: disable foreign keys: %w", m.name, err)
	}

	logger.Info("foreign keys disabled", map[string]any{
		"vendor":      m.name,
		"constraints": len(constraints),
	})
	return nil
}

// Enable restores the constraints captured by Disable. On failure the
// capture is kept and Enable may be called again.
func (m *VendorManager) Enable(ctx context.Context, conn *database.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var constraints []Constraint
	switch s := m.state.(type) {
	case enabled:
		return &IllegalStateError{Manager: m.name, Reason: "not disabled"}
	case disabled:
		constraints = s.constraints
	}

	if err := database.BatchExecute(ctx, conn, render(constraints, m.strategy.EnableStatements)); err != nil {
		logger.Error("failed to enable foreign keys", map[string]any{
			"vendor":      m.name,
			"constraints": len(constraints),
		})
		return fmt.Errorf("%s: enable foreign keys: %w", m.name, err)
	}

	m.state = enabled{}
	logger.Info("foreign keys enabled", map[string]any{
		"vendor":      m.name,
		"constraints": len(constraints),
	})
	return nil
}

// Disabled reports whether a capture is currently held.
func (m *VendorManager) Disabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.state.(disabled)
	return ok
}

// Constraints returns a copy of the captured constraints, or nil when enabled.
func (m *VendorManager) Constraints() []Constraint {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.state.(disabled); ok {
		return append([]Constraint(nil), s.constraints...)
	}
	return nil
}
