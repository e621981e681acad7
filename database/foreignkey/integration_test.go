//go:build integration

package foreignkey

import (
	"context"
	"testing"

	"github.com/galaplate/fixtures/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) *database.Connection {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shop"),
		tcpostgres.WithUsername("app"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := Open(url, database.WithLogLevel("silent"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, database.BatchExecute(ctx, conn, []string{
		`CREATE TABLE tenants (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE users (
			id INTEGER NOT NULL,
			tenant_id INTEGER NOT NULL REFERENCES tenants (id) ON DELETE CASCADE,
			PRIMARY KEY (id, tenant_id)
		)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			tenant_id INTEGER NOT NULL,
			CONSTRAINT orders_user_fk FOREIGN KEY (user_id, tenant_id)
				REFERENCES users (id, tenant_id)
				ON UPDATE CASCADE ON DELETE SET NULL
				DEFERRABLE INITIALLY DEFERRED
		)`,
		`CREATE TABLE invoices (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			tenant_id INTEGER NOT NULL,
			CONSTRAINT orders_user_fk FOREIGN KEY (user_id, tenant_id)
				REFERENCES users (id, tenant_id)
				ON UPDATE CASCADE ON DELETE SET NULL
				DEFERRABLE INITIALLY DEFERRED
		)`,
	}))

	return conn
}

func TestPostgreSQLRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := startPostgres(t)
	strategy := PostgreSQL{}

	before, err := strategy.Introspect(ctx, conn)
	require.NoError(t, err)
	require.Len(t, before, 3)

	m := PostgreSQLVendor.NewManager()
	require.NoError(t, m.Disable(ctx, conn))

	during, err := strategy.Introspect(ctx, conn)
	require.NoError(t, err)
	assert.Empty(t, during)

	require.NoError(t, database.BatchExecute(ctx, conn, []string{
		"INSERT INTO orders (id, user_id, tenant_id) VALUES (1, 7, 3)",
		"INSERT INTO users (id, tenant_id) VALUES (7, 3)",
		"INSERT INTO tenants (id) VALUES (3)",
	}))

	require.NoError(t, m.Enable(ctx, conn))

	after, err := strategy.Introspect(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInformationSchemaOnPostgreSQL(t *testing.T) {
	ctx := context.Background()
	conn := startPostgres(t)
	strategy := InformationSchema{}

	before, err := strategy.Introspect(ctx, conn)
	require.NoError(t, err)
	require.Len(t, before, 3)

	var tables []string
	for _, c := range before {
		if c.Name != "orders_user_fk" {
			continue
		}
		tables = append(tables, c.Table)
		assert.Equal(t, `"user_id", "tenant_id"`, c.Columns)
		assert.Equal(t, `"id", "tenant_id"`, c.ReferencedColumns)
		assert.Equal(t, "CASCADE", c.UpdateRule)
		assert.Equal(t, "SET NULL", c.DeleteRule)
		assert.Equal(t, "DEFERRABLE INITIALLY DEFERRED", c.Deferrability)
	}
	assert.Equal(t, []string{"invoices", "orders"}, tables)

	m := NewVendorManager(InformationSchemaID, strategy)
	require.NoError(t, m.Disable(ctx, conn))
	require.NoError(t, m.Enable(ctx, conn))

	after, err := strategy.Introspect(ctx, conn)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, after)
}

func TestAutoManagerOnPostgreSQL(t *testing.T) {
	ctx := context.Background()
	conn := startPostgres(t)

	auto := NewAutoManager(nil)
	require.NoError(t, auto.Disable(ctx, conn))
	assert.Equal(t, "auto(postgresql)", auto.String())
	require.NoError(t, auto.Enable(ctx, conn))
	assert.False(t, auto.Disabled())
}
