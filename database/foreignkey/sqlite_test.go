package foreignkey

import (
	"context"
	"database/sql"
	"testing"

	"github.com/galaplate/fixtures/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, enforce bool) *database.Connection {
	t.Helper()

	conn, err := Open("jdbc:sqlite::memory:", database.WithLogLevel("silent"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	statements := []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users (id))",
	}
	if enforce {
		statements = append(statements, "PRAGMA foreign_keys = ON")
	}
	require.NoError(t, database.BatchExecute(context.Background(), conn, statements))

	return conn
}

func foreignKeysOn(t *testing.T, conn *database.Connection) bool {
	t.Helper()

	on, err := database.Query(context.Background(), conn, "PRAGMA foreign_keys", func(rows *sql.Rows) (int, error) {
		var v int
		err := rows.Scan(&v)
		return v, err
	})
	require.NoError(t, err)
	require.Len(t, on, 1)
	return on[0] == 1
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t, true)

	orphan := []string{"INSERT INTO orders (id, user_id) VALUES (1, 42)"}
	require.Error(t, database.BatchExecute(ctx, conn, orphan))

	m := SQLiteVendor.NewManager()
	require.NoError(t, m.Disable(ctx, conn))
	assert.False(t, foreignKeysOn(t, conn))

	require.NoError(t, database.BatchExecute(ctx, conn, orphan))

	require.NoError(t, m.Enable(ctx, conn))
	assert.True(t, foreignKeysOn(t, conn))

	err := database.BatchExecute(ctx, conn, []string{"INSERT INTO orders (id, user_id) VALUES (2, 43)"})
	require.Error(t, err)
}

func TestSQLiteLeavesUnenforcedSessionAlone(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t, false)

	m := SQLiteVendor.NewManager()
	require.NoError(t, m.Disable(ctx, conn))
	assert.True(t, m.Disabled())
	assert.Empty(t, m.Constraints())

	require.NoError(t, m.Enable(ctx, conn))
	assert.False(t, foreignKeysOn(t, conn))
}

func TestAutoManagerOnSQLite(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t, true)

	auto := NewAutoManager(nil)
	require.NoError(t, auto.Disable(ctx, conn))
	assert.Equal(t, "auto(sqlite)", auto.String())
	assert.False(t, foreignKeysOn(t, conn))

	require.NoError(t, auto.Enable(ctx, conn))
	assert.True(t, foreignKeysOn(t, conn))
}
