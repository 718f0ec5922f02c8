//go:build integration
// +build integration

package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqlsink"
)

func TestSink_UpsertRoundTrip(t *testing.T) {
	for name, setup := range Backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ss := setup(t)
			defer ss.Close()

			orders := sqlsink.NewTableID("", "", "orders")
			ddl, err := ss.Sink.ApplySchemaChanges(ctx, orders, OrderRecord(t, sqlsink.Create, 7, "NEW", "10.00"))
			require.NoError(t, err)
			require.Len(t, ddl, 1)

			for _, status := range []string{"NEW", "PAID", "SHIPPED"} {
				_, err := ss.Sink.Write(ctx, orders, OrderRecord(t, sqlsink.Update, 7, status, "42.50"))
				require.NoError(t, err)
			}

			var status string
			var count int
			require.NoError(t, ss.Sink.DB().QueryRowContext(ctx,
				"SELECT status, (SELECT COUNT(*) FROM orders) FROM orders WHERE id = 7").Scan(&status, &count))
			assert.Equal(t, "SHIPPED", status)
			assert.Equal(t, 1, count)

			_, err = ss.Sink.Write(ctx, orders, OrderRecord(t, sqlsink.Delete, 7, "", ""))
			require.NoError(t, err)
			require.NoError(t, ss.Sink.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&count))
			assert.Equal(t, 0, count)
		})
	}
}

func TestSink_SchemaEvolution(t *testing.T) {
	for name, setup := range Backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ss := setup(t)
			defer ss.Close()

			events := sqlsink.NewTableID("", "", "events")
			narrow, err := sqlsink.NewRecord().
				Key(sqlsink.Field{Name: "id", Type: sqlsink.TypeInt64, Value: int64(1)}).
				Field(sqlsink.Field{Name: "kind", Type: sqlsink.TypeString, Optional: true, Length: 64, Value: "signup"}).
				Build()
			require.NoError(t, err)

			_, err = ss.Sink.ApplySchemaChanges(ctx, events, narrow)
			require.NoError(t, err)
			_, err = ss.Sink.Write(ctx, events, narrow)
			require.NoError(t, err)

			wide, err := sqlsink.NewRecord().
				Key(sqlsink.Field{Name: "id", Type: sqlsink.TypeInt64, Value: int64(2)}).
				Field(
					sqlsink.Field{Name: "kind", Type: sqlsink.TypeString, Optional: true, Length: 64, Value: "login"},
					sqlsink.Field{Name: "source", Type: sqlsink.TypeString, Length: 16, Default: "web", Value: "app"},
				).
				Build()
			require.NoError(t, err)

			ddl, err := ss.Sink.ApplySchemaChanges(ctx, events, wide)
			require.NoError(t, err)
			require.NotEmpty(t, ddl)

			td, err := ss.Sink.Describe(ctx, events)
			require.NoError(t, err)
			assert.True(t, td.HasColumn("source"))

			_, err = ss.Sink.Write(ctx, events, wide)
			require.NoError(t, err)

			var source string
			require.NoError(t, ss.Sink.DB().QueryRowContext(ctx, "SELECT source FROM events WHERE id = 1").Scan(&source))
			assert.Equal(t, "web", source)
		})
	}
}

func TestPostgreSQL_FoldsUnquotedIdentifiers(t *testing.T) {
	ctx := context.Background()
	ss := SetupPostgreSQL(t)
	defer ss.Close()

	ss.Exec(t, `CREATE TABLE orders (id INTEGER PRIMARY KEY, status VARCHAR(32))`)

	td, err := ss.Sink.Describe(ctx, sqlsink.NewTableID("", "Public", "Orders"))
	require.NoError(t, err)
	assert.Equal(t, "public.orders", td.ID().String())
	assert.Equal(t, []string{"id"}, td.PrimaryKeyColumnNames())

	_, err = ss.Sink.Describe(ctx, sqlsink.NewTableID("", "Public", "Orders").Quoted(true))
	assert.ErrorIs(t, err, sqlsink.ErrTableNotFound)
}

func TestMySQL_DetectsServer(t *testing.T) {
	ss := SetupMySQL(t)
	defer ss.Close()

	assert.Contains(t, []string{"MySQL", "MariaDB"}, ss.Sink.Detected().Product)
	assert.Equal(t, "mysql", ss.Sink.Dialect().Name())
}
