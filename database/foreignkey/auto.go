package foreignkey

import (
	"context"
	"fmt"
	"sync"

	"github.com/galaplate/fixtures/database"
	"github.com/galaplate/fixtures/logger"
)

// AutoManager picks the vendor from the connection URL on Disable and
// refuses to Enable against a different engine.
type AutoManager struct {
	mu       sync.Mutex
	registry *Registry
	vendor   *Vendor
	delegate *VendorManager
}

// NewAutoManager resolves vendors through registry, or DefaultRegistry when nil.
func NewAutoManager(registry *Registry) *AutoManager {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &AutoManager{registry: registry}
}

func (a *AutoManager) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.vendor != nil {
		return "auto(" + a.vendor.Name + ")"
	}
	return "auto"
}

func (a *AutoManager) Disable(ctx context.Context, conn *database.Connection) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.delegate != nil {
		return &IllegalStateError{Manager: "auto(" + a.vendor.Name + ")", Reason: "already disabled"}
	}

	vendor, ok := a.registry.FindByURL(conn.URL())
	if !ok {
		return &UnsupportedEngineError{URL: conn.URL()}
	}

	logger.Debug("detected database engine", map[string]any{
		"vendor": vendor.Name,
		"url":    database.Redact(conn.URL()),
	})

	delegate := vendor.NewManager()
	err := delegate.Disable(ctx, conn)
	if delegate.Disabled() {
		a.vendor = vendor
		a.delegate = delegate
	}
	return err
}

func (a *AutoManager) Enable(ctx context.Context, conn *database.Connection) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.delegate == nil {
		return &IllegalStateError{Manager: "auto", Reason: "not disabled"}
	}

	vendor, ok := a.registry.FindByURL(conn.URL())
	if !ok || vendor.Name != a.vendor.Name {
		current := "unknown"
		if ok {
			current = vendor.Name
		}
		return &IllegalStateError{
			Manager: "auto(" + a.vendor.Name + ")",
			Reason:  fmt.Sprintf("database engine changed from %s to %s", a.vendor.Name, current),
		}
	}

	if err := a.delegate.Enable(ctx, conn); err != nil {
		return err
	}

	a.vendor = nil
	a.delegate = nil
	return nil
}

// Disabled reports whether a capture is currently held.
func (a *AutoManager) Disabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.delegate != nil
}
