package foreignkey

import (
	"errors"
	"fmt"

	"github.com/galaplate/fixtures/database"
)

var (
	// ErrIllegalState matches every *IllegalStateError.
	ErrIllegalState = errors.New("illegal foreign key manager state")

	// ErrUnsupportedEngine matches every *UnsupportedEngineError.
	ErrUnsupportedEngine = errors.New("unsupported database engine")

	// ErrNoDialector is returned when a vendor has no gorm dialector to open connections with.
	ErrNoDialector = errors.New("no gorm dialector for vendor")

	// ErrNoDriver is returned when none of a vendor's database/sql drivers is registered.
	ErrNoDriver = errors.New("no database/sql driver registered for vendor")
)

// IllegalStateError reports a disable/enable call that does not fit the
// manager's current state, or an engine change between the two calls.
type IllegalStateError struct {
	Manager string
	Reason  string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s foreign keys: %s", e.Manager, e.Reason)
}

func (e *IllegalStateError) Is(target error) bool {
	return target == ErrIllegalState
}

// UnsupportedEngineError reports a URL that no registered vendor matches.
type UnsupportedEngineError struct {
	URL string
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("no supported database engine for URL %q", database.Redact(e.URL))
}

func (e *UnsupportedEngineError) Is(target error) bool {
	return target == ErrUnsupportedEngine
}
