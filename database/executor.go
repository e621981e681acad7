package database

import (
	"context"
	"database/sql"

	"github.com/galaplate/fixtures/logger"
	"gorm.io/gorm"
)

// RowMapper converts the current row of rows into a value.
type RowMapper[T any] func(rows *sql.Rows) (T, error)

// Query runs query and maps every returned row with mapper, in order.
// Nothing is returned unless all rows were read and mapped.
func Query[T any](ctx context.Context, conn *Connection, query string, mapper RowMapper[T]) ([]T, error) {
	rows, err := conn.DB(ctx).Raw(query).Rows()
	if err != nil {
		return nil, queryFailed(query, err)
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		value, err := mapper(rows)
		if err != nil {
			return nil, queryFailed(query, err)
		}
		result = append(result, value)
	}

	if err := rows.Err(); err != nil {
		return nil, queryFailed(query, err)
	}

	return result, nil
}

func queryFailed(query string, err error) error {
	fields := errorFields(err)
	fields["sql"] = query
	logger.Error("query failed", fields)

	return &ExecutionError{SQL: query, Index: -1, Err: err}
}

// BatchExecute runs statements in order on a single session and stops at the first failure.
func BatchExecute(ctx context.Context, conn *Connection, statements []string) error {
	if len(statements) == 0 {
		return nil
	}

	batch := append([]string(nil), statements...)

	err := conn.DB(ctx).Connection(func(session *gorm.DB) error {
		for i, stmt := range batch {
			if err := session.Exec(stmt).Error; err != nil {
				return &ExecutionError{SQL: stmt, Index: i, Statements: batch, Err: err}
			}
		}
		return nil
	})
	if err == nil {
		logger.Debug("batch executed", map[string]any{"statements": len(batch)})
		return nil
	}

	execErr, ok := err.(*ExecutionError)
	if !ok {
		execErr = &ExecutionError{SQL: batch[0], Index: 0, Statements: batch, Err: err}
	}

	fields := errorFields(execErr.Err)
	fields["sql"] = execErr.SQL
	fields["index"] = execErr.Index
	fields["statements"] = batch
	logger.Error("batch failed", fields)

	return execErr
}
