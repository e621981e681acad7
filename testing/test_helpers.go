package testing

import (
	"context"

	"github.com/galaplate/fixtures/database"
)

type DatabaseHelper struct {
	tc *TestCase
}

func NewDatabaseHelper(tc *TestCase) *DatabaseHelper {
	return &DatabaseHelper{tc: tc}
}

func (d *DatabaseHelper) AssertDatabaseHas(table string, conditions map[string]any) {
	count := d.count(table, conditions)
	d.tc.True(count > 0, "Expected to find record in table %s with conditions %v", table, conditions)
}

func (d *DatabaseHelper) AssertDatabaseMissing(table string, conditions map[string]any) {
	count := d.count(table, conditions)
	d.tc.True(count == 0, "Expected NOT to find record in table %s with conditions %v", table, conditions)
}

func (d *DatabaseHelper) AssertDatabaseCount(table string, expectedCount int) {
	count := d.count(table, nil)
	d.tc.Equal(int64(expectedCount), count, "Expected %d records in table %s, got %d", expectedCount, table, count)
}

// Exec runs statements without touching foreign keys.
func (d *DatabaseHelper) Exec(statements ...string) error {
	return database.BatchExecute(context.Background(), d.tc.GetConn(), statements)
}

func (d *DatabaseHelper) count(table string, conditions map[string]any) int64 {
	var count int64

	query := d.tc.GetConn().DB(context.Background()).Table(table)
	for key, value := range conditions {
		query = query.Where(key+" = ?", value)
	}

	d.tc.Require().NoError(query.Count(&count).Error)
	return count
}
