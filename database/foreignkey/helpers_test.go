package foreignkey

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/galaplate/fixtures/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockConnection returns a connection whose SQL is served by sqlmock. The
// dialector only carries statements; the vendor under test is chosen by url.
func mockConnection(t *testing.T, url string) (*database.Connection, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return database.NewConnection(db, url), mock
}

func expectExec(mock sqlmock.Sqlmock, statement string) *sqlmock.ExpectedExec {
	return mock.ExpectExec(regexp.QuoteMeta(statement)).WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectQuery(mock sqlmock.Sqlmock, fragment string) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(regexp.QuoteMeta(fragment))
}

var mysqlColumns = []string{
	"CONSTRAINT_NAME", "TABLE_SCHEMA", "TABLE_NAME", "columns",
	"REFERENCED_TABLE_SCHEMA", "REFERENCED_TABLE_NAME", "referenced_columns",
	"UPDATE_RULE", "DELETE_RULE",
}

func mysqlRows() *sqlmock.Rows {
	return sqlmock.NewRows(mysqlColumns).
		AddRow("fk_order_user", "shop", "orders", "`user_id`", "shop", "users", "`id`", "CASCADE", "RESTRICT").
		AddRow("fk_line_order", "shop", "order_lines", "`order_id`, `tenant_id`", "shop", "orders", "`id`, `tenant_id`", "NO ACTION", "SET NULL")
}
