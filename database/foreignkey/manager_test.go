package foreignkey

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/galaplate/fixtures/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dropOrderUser = "ALTER TABLE `shop`.`orders` DROP FOREIGN KEY `fk_order_user`"
	dropLineOrder = "ALTER TABLE `shop`.`order_lines` DROP FOREIGN KEY `fk_line_order`"
	addOrderUser  = "ALTER TABLE `shop`.`orders` ADD CONSTRAINT `fk_order_user` FOREIGN KEY (`user_id`) REFERENCES `shop`.`users` (`id`) ON UPDATE CASCADE ON DELETE RESTRICT"
	addLineOrder  = "ALTER TABLE `shop`.`order_lines` ADD CONSTRAINT `fk_line_order` FOREIGN KEY (`order_id`, `tenant_id`) REFERENCES `shop`.`orders` (`id`, `tenant_id`) ON UPDATE NO ACTION ON DELETE SET NULL"
)

func TestVendorManagerCycle(t *testing.T) {
	ctx := context.Background()
	conn, mock := mockConnection(t, "mysql://root@tcp(localhost:3306)/shop")
	m := MySQLVendor.NewManager()

	expectQuery(mock, "information_schema.KEY_COLUMN_USAGE").WillReturnRows(mysqlRows())
	expectExec(mock, dropOrderUser)
	expectExec(mock, dropLineOrder)
	expectExec(mock, addOrderUser)
	expectExec(mock, addLineOrder)

	require.NoError(t, m.Disable(ctx, conn))
	assert.True(t, m.Disabled())
	assert.Len(t, m.Constraints(), 2)

	require.NoError(t, m.Enable(ctx, conn))
	assert.False(t, m.Disabled())
	assert.Nil(t, m.Constraints())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVendorManagerRejectsSecondDisable(t *testing.T) {
	ctx := context.Background()
	conn, mock := mockConnection(t, "mysql://root@tcp(localhost:3306)/shop")
	m := MySQLVendor.NewManager()

	expectQuery(mock, "information_schema.KEY_COLUMN_USAGE").WillReturnRows(mysqlRows())
	expectExec(mock, dropOrderUser)
	expectExec(mock, dropLineOrder)
	require.NoError(t, m.Disable(ctx, conn))

	err := m.Disable(ctx, conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalState))
	assert.Contains(t, err.Error(), "already disabled")

	// Nothing beyond the first cycle's statements reached the database.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVendorManagerRejectsEnableBeforeDisable(t *testing.T) {
	conn, mock := mockConnection(t, "mysql://root@tcp(localhost:3306)/shop")
	m := MySQLVendor.NewManager()

	err := m.Enable(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalState))
	assert.Contains(t, err.Error(), "not disabled")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVendorManagerIntrospectFailureStaysEnabled(t *testing.T) {
	conn, mock := mockConnection(t, "mysql://root@tcp(localhost:3306)/shop")
	m := MySQLVendor.NewManager()

	boom := errors.New("access denied for information_schema")
	expectQuery(mock, "information_schema.KEY_COLUMN_USAGE").WillReturnError(boom)

	err := m.Disable(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrExecution))
	assert.Contains(t, err.Error(), "access denied")
	assert.False(t, m.Disabled())
}

func TestVendorManagerKeepsCaptureWhenDisableFails(t *testing.T) {
	ctx := context.Background()
	conn, mock := mockConnection(t, "mysql://root@tcp(localhost:3306)/shop")
	m := MySQLVendor.NewManager()

	expectQuery(mock, "information_schema.KEY_COLUMN_USAGE").WillReturnRows(mysqlRows())
	expectExec(mock, dropOrderUser)
	expectExec(mock, dropLineOrder).WillReturnError(errors.New("lock wait timeout"))

	err := m.Disable(ctx, conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrExecution))
	assert.Contains(t, err.Error(), "lock wait timeout")
	assert.True(t, m.Disabled())
	assert.Len(t, m.Constraints(), 2)

	var execErr *database.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, dropLineOrder, execErr.SQL)
	assert.Equal(t, 1, execErr.Index)
}

func TestVendorManagerEnableCanBeRetried(t *testing.T) {
	ctx := context.Background()
	conn, mock := mockConnection(t, "mysql://root@tcp(localhost:3306)/shop")
	m := MySQLVendor.NewManager()

	expectQuery(mock, "information_schema.KEY_COLUMN_USAGE").WillReturnRows(mysqlRows())
	expectExec(mock, dropOrderUser)
	expectExec(mock, dropLineOrder)
	expectExec(mock, addOrderUser).WillReturnError(errors.New("Cannot add foreign key constraint"))
	expectExec(mock, addOrderUser)
	expectExec(mock, addLineOrder)

	require.NoError(t, m.Disable(ctx, conn))

	err := m.Enable(ctx, conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot add foreign key constraint")
	assert.True(t, m.Disabled())

	require.NoError(t, m.Enable(ctx, conn))
	assert.False(t, m.Disabled())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVendorManagerWithoutForeignKeys(t *testing.T) {
	ctx := context.Background()
	conn, mock := mockConnection(t, "h2:mem:test")
	strategy := &countingStrategy{}
	m := NewVendorManager("counting", strategy)

	require.NoError(t, m.Disable(ctx, conn))
	assert.True(t, m.Disabled())
	assert.Empty(t, m.Constraints())

	require.NoError(t, m.Enable(ctx, conn))
	assert.False(t, m.Disabled())
	assert.Equal(t, 1, strategy.introspects)
	require.NoError(t, mock.ExpectationsWereMet())
}

type countingStrategy struct {
	mu          sync.Mutex
	introspects int
}

func (s *countingStrategy) Introspect(context.Context, *database.Connection) ([]Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.introspects++
	return nil, nil
}

func (s *countingStrategy) DisableStatements(Constraint) []string { return nil }
func (s *countingStrategy) EnableStatements(Constraint) []string  { return nil }

func TestVendorManagerSerializesConcurrentDisable(t *testing.T) {
	conn, _ := mockConnection(t, "h2:mem:test")
	strategy := &countingStrategy{}
	m := NewVendorManager("counting", strategy)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Disable(context.Background(), conn); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, strategy.introspects)
	assert.Equal(t, 7, failed)
	assert.True(t, m.Disabled())
	assert.Empty(t, m.Constraints())
}
