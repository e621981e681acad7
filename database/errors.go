package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrExecution matches every *ExecutionError through errors.Is.
var ErrExecution = errors.New("sql execution failed")

// ExecutionError reports a statement or query that failed against the database.
type ExecutionError struct {
	SQL        string
	Index      int
	Statements []string
	Err        error
}

func (e *ExecutionError) Error() string {
	if len(e.Statements) > 0 {
		return fmt.Sprintf("batch statement %d of %d failed: %s: %v", e.Index+1, len(e.Statements), e.SQL, e.Err)
	}
	return fmt.Sprintf("query failed: %s: %v", e.SQL, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

// errorFields extracts vendor error codes for log records.
func errorFields(err error) map[string]any {
	fields := map[string]any{"error": err.Error()}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		fields["mysql_error"] = myErr.Number
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields["sqlstate"] = pgErr.Code
	}

	return fields
}
